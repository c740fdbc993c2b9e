package tlcache

// Item is one text submitted for batch translation.
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchRequest is a single provider call: every text goes to one target locale.
type BatchRequest struct {
	Texts        []string
	SourceLocale string
	TargetLocale string
}

// ProviderLog describes how a provider call went. It is returned to batch
// callers and never persisted.
type ProviderLog struct {
	Provider  string `json:"provider"`
	Model     string `json:"model,omitempty"`
	Texts     int    `json:"texts"`
	Attempts  int    `json:"attempts"`
	LatencyMs int64  `json:"latency_ms"`
	Fallback  bool   `json:"fallback"`            // Originals were returned instead of translations
	Cancelled bool   `json:"cancelled,omitempty"` // The call was cut short on our side; do not persist
	Replaced  int    `json:"replaced,omitempty"`  // Individual results swapped for the original
	Error     string `json:"error,omitempty"`
}

// BatchResult is the outcome of Adapter.TranslateBatch. Translations is
// index-aligned with the request texts.
type BatchResult struct {
	Translations []string
	Log          ProviderLog
}

// LocaleResult summarizes the orchestrator's work for one target locale.
type LocaleResult struct {
	Log     ProviderLog `json:"log"`
	Written int         `json:"written"`
	Skipped bool        `json:"skipped,omitempty"` // Target equals the source locale
}

// Results maps normalized target locales to their outcome.
type Results map[string]LocaleResult

// Entry is one cache write.
type Entry struct {
	Key   string
	Value string
}

// Lookup is one cache read. Found is false on a miss or a failed read.
type Lookup struct {
	Value string
	Found bool
}

// RTLLanguages contains base language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}

// IgnoredTags contains HTML tags whose content is never collected for translation.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
	"template": true,
}
