package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KaramelBytes/leaseup/internal/ai"
	cfgpkg "github.com/KaramelBytes/leaseup/internal/config"
	"github.com/KaramelBytes/leaseup/internal/insight"
)

type runtimeOptions struct {
	ProviderFlag string
	ModelFlag    string
	OllamaHost   string
}

// resolveProvider normalizes the provider name from the flag, then config.
func resolveProvider(cfg *cfgpkg.Global, flag string) string {
	name := strings.ToLower(strings.TrimSpace(flag))
	if name == "" && cfg != nil {
		name = strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	}
	switch name {
	case "":
		return ai.ProviderOpenAI
	case "local":
		return ai.ProviderOllama
	case "anthropic", "google", "gemini", "meta", "llama":
		return ai.ProviderOpenRouter
	}
	return name
}

func buildRuntime(cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	httpTimeout := 60 * time.Second
	retryMax := 1
	baseDelay := 500 * time.Millisecond
	maxDelay := 4 * time.Second
	if cfg != nil {
		if cfg.HTTPTimeoutSec > 0 {
			httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		}
		if cfg.RetryMaxAttempts > 0 {
			retryMax = cfg.RetryMaxAttempts
		}
		if cfg.RetryBaseDelayMs > 0 {
			baseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		}
		if cfg.RetryMaxDelayMs > 0 {
			maxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		}
	}

	providerName := resolveProvider(cfg, opts.ProviderFlag)
	rc := ai.RuntimeConfig{
		HTTPTimeout: httpTimeout,
		RetryMax:    retryMax,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
	if cfg != nil {
		rc.APIKey = cfg.ResolveAPIKey(providerName)
		if providerName == ai.ProviderOpenAI {
			rc.BaseURL = cfg.OpenAIBaseURL
		}
	}

	if providerName == ai.ProviderOllama {
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" && cfg != nil {
			host = cfg.OllamaHost
		}
		if host == "" {
			host = ai.DefaultOllamaHost
		}
		rc.Host = host
	}

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (use one of %s)", providerName, strings.Join(ai.Providers(), ", "))
	}
	return client, providerName, nil
}

func selectModel(cfg *cfgpkg.Global, provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	return ai.DefaultModel(provider)
}

// newGenerator wires the configured runtime into an insight generator.
func newGenerator(cfg *cfgpkg.Global, opts runtimeOptions) (*insight.Generator, error) {
	rt, provider, err := buildRuntime(cfg, opts)
	if err != nil {
		return nil, err
	}
	gopt := insight.Options{
		Provider: provider,
		Model:    selectModel(cfg, provider, opts.ModelFlag),
		Logger:   slog.Default(),
	}
	if cfg != nil {
		gopt.MaxTokens = cfg.MaxTokens
		gopt.Temperature = cfg.Temperature
		if cfg.InsightTimeoutSec > 0 {
			gopt.Timeout = time.Duration(cfg.InsightTimeoutSec) * time.Second
		}
	}
	return insight.NewGenerator(rt, gopt), nil
}
