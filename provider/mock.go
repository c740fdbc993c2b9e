package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider answers from a fixed table. Texts it does not know come back
// as "[locale] text" so untranslated output is easy to spot.
type MockProvider struct {
	// Translations maps normalized target locale to source text to translation.
	Translations map[string]map[string]string
	// Err, when set, is returned by every call.
	Err error

	mu          sync.Mutex
	callCount   int
	lastRequest *BatchRequest
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]map[string]string{
			"sv": {
				"Hello":   "Hej",
				"Welcome": "Välkommen",
				"Bye":     "Hej då",
			},
			"da": {
				"Hello":   "Hej",
				"Welcome": "Velkommen",
			},
			"it": {
				"Hello":    "Ciao",
				"Welcome":  "Benvenuto",
				"Join now": "Iscriviti ora",
			},
			"es": {
				"Hello":   "Hola",
				"Welcome": "Bienvenido",
			},
		},
	}
}

// Name implements Provider.
func (m *MockProvider) Name() string {
	return "mock"
}

// Translate returns mock translations.
func (m *MockProvider) Translate(ctx context.Context, req BatchRequest) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := m.Translations[req.TargetLocale]
	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translation, ok := table[text]; ok {
			results[i] = translation
		} else {
			results[i] = fmt.Sprintf("[%s] %s", req.TargetLocale, text)
		}
	}

	return results, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *BatchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

var _ Provider = (*MockProvider)(nil)
