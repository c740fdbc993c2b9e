package enhancer

import (
	"sync"

	"github.com/ZaguanLabs/tlcache"
)

// shownText is a text displayed in place of its original for one locale.
type shownText struct {
	locale string
	text   string
}

// Session is the per-page state shared by enhancer runs: which navigation
// already ran and the source text behind every swapped node. A client
// bootstrap owns one Session and calls Reset on a full page load.
type Session struct {
	mu             sync.Mutex
	lastNavigation string
	ran            bool
	locale         string
	originals      map[shownText]string
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{originals: make(map[shownText]string)}
}

// begin marks navigationID as run and reports whether it had not run yet.
// Swapped texts remembered for another locale are forgotten.
func (s *Session) begin(navigationID, locale string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ran && s.lastNavigation == navigationID {
		return false
	}
	s.ran = true
	s.lastNavigation = navigationID

	locale = tlcache.NormalizeLocale(locale)
	if locale != s.locale {
		s.locale = locale
		s.originals = make(map[shownText]string)
	}
	return true
}

// remember records that shown is displayed in place of original for locale.
func (s *Session) remember(locale, shown, original string) {
	if shown == original {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originals[shownText{locale: tlcache.NormalizeLocale(locale), text: shown}] = original
}

// source returns the original text behind shown in locale, or shown itself.
func (s *Session) source(locale, shown string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if original, ok := s.originals[shownText{locale: tlcache.NormalizeLocale(locale), text: shown}]; ok {
		return original
	}
	return shown
}

// Reset forgets every navigation and swapped text.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ran = false
	s.lastNavigation = ""
	s.locale = ""
	s.originals = make(map[shownText]string)
}
