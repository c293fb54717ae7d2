package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/KaramelBytes/leaseup/internal/ai"
	cfgpkg "github.com/KaramelBytes/leaseup/internal/config"
)

func TestSelectModelPrecedence(t *testing.T) {
	cfg := &cfgpkg.Global{DefaultModel: "cfg-model"}

	if got := selectModel(cfg, ai.ProviderOpenAI, "cli-model"); got != "cli-model" {
		t.Fatalf("expected CLI model, got %q", got)
	}
	if got := selectModel(cfg, ai.ProviderOpenAI, ""); got != "cfg-model" {
		t.Fatalf("expected config model, got %q", got)
	}
	cfg.DefaultModel = ""
	if got := selectModel(cfg, ai.ProviderOpenAI, ""); got != "gpt-4o-mini" {
		t.Fatalf("expected openai fallback model, got %q", got)
	}
	if got := selectModel(nil, ai.ProviderOpenRouter, ""); got != "openai/gpt-4o-mini" {
		t.Fatalf("expected openrouter fallback model, got %q", got)
	}
}

func TestResolveProvider(t *testing.T) {
	cases := []struct {
		cfg  *cfgpkg.Global
		flag string
		want string
	}{
		{nil, "", ai.ProviderOpenAI},
		{&cfgpkg.Global{DefaultProvider: "openrouter"}, "", ai.ProviderOpenRouter},
		{&cfgpkg.Global{DefaultProvider: "openrouter"}, "OpenAI", ai.ProviderOpenAI},
		{nil, "local", ai.ProviderOllama},
		{nil, "anthropic", ai.ProviderOpenRouter},
		{nil, " ollama ", ai.ProviderOllama},
	}
	for _, c := range cases {
		if got := resolveProvider(c.cfg, c.flag); got != c.want {
			t.Errorf("resolveProvider(%v, %q) = %q, want %q", c.cfg, c.flag, got, c.want)
		}
	}
}

func TestBuildRuntimeSelectsProvider(t *testing.T) {
	cfg := &cfgpkg.Global{DefaultProvider: "openai", APIKey: "sk-test", HTTPTimeoutSec: 5, RetryMaxAttempts: 1}

	rt, name, err := buildRuntime(cfg, runtimeOptions{})
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	if name != ai.ProviderOpenAI {
		t.Fatalf("expected openai, got %q", name)
	}
	if _, ok := rt.(*ai.OpenAIClient); !ok {
		t.Fatalf("expected *ai.OpenAIClient, got %T", rt)
	}

	rt, name, err = buildRuntime(cfg, runtimeOptions{ProviderFlag: "local", OllamaHost: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	if name != ai.ProviderOllama {
		t.Fatalf("expected ollama, got %q", name)
	}
	if _, ok := rt.(*ai.OllamaClient); !ok {
		t.Fatalf("expected *ai.OllamaClient, got %T", rt)
	}

	rt, _, err = buildRuntime(cfg, runtimeOptions{ProviderFlag: "openrouter"})
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	if _, ok := rt.(*ai.Client); !ok {
		t.Fatalf("expected *ai.Client, got %T", rt)
	}
}

func TestBuildRuntimeUnknownProvider(t *testing.T) {
	if _, _, err := buildRuntime(&cfgpkg.Global{}, runtimeOptions{ProviderFlag: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestBuildRuntimeMissingKeyFailsWithoutNetwork(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	rt, _, err := buildRuntime(&cfgpkg.Global{DefaultProvider: "openai", OpenAIBaseURL: "http://127.0.0.1:1"}, runtimeOptions{})
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	_, err = rt.Generate(context.Background(), ai.GenerateRequest{Model: "gpt-4o-mini", Messages: []ai.Message{{Role: "user", Content: "hi"}}})
	var ae *ai.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestNewGeneratorUsesConfig(t *testing.T) {
	cfg := &cfgpkg.Global{DefaultProvider: "ollama", DefaultModel: "llama3.1:8b-instruct", InsightTimeoutSec: 5}
	gen, err := newGenerator(cfg, runtimeOptions{})
	if err != nil {
		t.Fatalf("newGenerator: %v", err)
	}
	if gen.Model() != "llama3.1:8b-instruct" {
		t.Fatalf("unexpected model %q", gen.Model())
	}
}
