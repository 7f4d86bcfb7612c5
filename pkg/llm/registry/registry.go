package registry

import (
	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/llm/gemini"
	"ai-chat-be/pkg/llm/groq"
	"ai-chat-be/pkg/llm/ollama"
)

// binding ties a public model id to a backend and the model name that
// backend expects.
type binding struct {
	backend       string // "gemini", "groq", "ollama"
	upstreamModel string
}

// models is the static lookup table of selectable model ids. Unknown ids
// resolve to DefaultModel rather than erroring; Resolve reports whether the
// id was known so callers can log the fallback.
var models = map[string]binding{
	"gemini-2.0-flash":               {backend: "gemini", upstreamModel: "gemini-2.0-flash"},
	"gemini-2.5-flash-preview-04-17": {backend: "gemini", upstreamModel: "gemini-2.5-flash-preview-04-17"},
	"gemini-2.5-pro-preview-05-06":   {backend: "gemini", upstreamModel: "gemini-2.5-pro-preview-05-06"},
	"llama-3.3-70b-versatile":        {backend: "groq", upstreamModel: "llama-3.3-70b-versatile"},
	"llama-3.1-8b-instant":           {backend: "groq", upstreamModel: "llama-3.1-8b-instant"},
	"ollama-llama3":                  {backend: "ollama", upstreamModel: "llama3"},
	"ollama-qwen2.5":                 {backend: "ollama", upstreamModel: "qwen2.5"},
}

const DefaultModel = "gemini-2.0-flash"

type Config struct {
	GeminiAPIKey  string
	GroqAPIKey    string
	GroqBaseURL   string
	OllamaBaseURL string
}

// Registry resolves public model ids to provider instances. Providers are
// constructed once and shared; per-call model override goes through options.
type Registry struct {
	providers map[string]llm.Provider
}

func New(cfg Config) *Registry {
	return &Registry{
		providers: map[string]llm.Provider{
			"gemini": gemini.NewGeminiProvider(cfg.GeminiAPIKey, DefaultModel),
			"groq":   groq.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqBaseURL, "llama-3.3-70b-versatile"),
			"ollama": ollama.NewOllamaProvider(cfg.OllamaBaseURL, "llama3"),
		},
	}
}

// Resolve maps a model id to its provider and upstream model name. Unknown
// ids fall back to DefaultModel; known reports whether the id matched.
func (r *Registry) Resolve(modelID string) (provider llm.Provider, upstreamModel string, known bool) {
	b, ok := models[modelID]
	if !ok {
		b = models[DefaultModel]
	}
	return r.providers[b.backend], b.upstreamModel, ok
}

// Known reports whether the model id is in the lookup table.
func Known(modelID string) bool {
	_, ok := models[modelID]
	return ok
}

// ModelIDs lists the selectable model ids.
func ModelIDs() []string {
	ids := make([]string, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	return ids
}
