package ai

import (
	"sort"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) Runtime

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OpenRouter / OpenAI
	APIKey  string
	BaseURL string
	// Ollama
	Host string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// GetRuntime creates a Runtime for the given provider if registered.
func GetRuntime(name string, cfg RuntimeConfig) (Runtime, bool) {
	if f, ok := registry[name]; ok {
		return f(cfg), true
	}
	return nil, false
}

// Providers lists registered provider names, sorted.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterRuntime(ProviderOpenRouter, func(c RuntimeConfig) Runtime {
		return NewClient(c.APIKey, ClientOptions{
			HTTPTimeout: c.HTTPTimeout,
			RetryMax:    c.RetryMax,
			BaseDelay:   c.BaseDelay,
			MaxDelay:    c.MaxDelay,
			BaseURL:     c.BaseURL,
		})
	})
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) Runtime {
		return NewOpenAIClient(c.APIKey, OpenAIOptions{
			HTTPTimeout: c.HTTPTimeout,
			RetryMax:    c.RetryMax,
			BaseURL:     c.BaseURL,
		})
	})
	ollama := func(c RuntimeConfig) Runtime {
		return NewOllamaClient(c.Host, ClientOptions{
			HTTPTimeout: c.HTTPTimeout,
			RetryMax:    c.RetryMax,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    time.Second,
		})
	}
	RegisterRuntime(ProviderOllama, ollama)
	RegisterRuntime(ProviderLocal, ollama)
}
