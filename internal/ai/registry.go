package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/suPer8Hu/symptom-checker/internal/config"
)

// ProviderFactory builds a provider; an empty model selects the configured default.
type ProviderFactory func(ctx context.Context, model string) (Provider, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f(ctx, model)
}

// Chain resolves names in order, e.g. primary then fallback.
func (r *Registry) Chain(ctx context.Context, names []string) ([]Provider, error) {
	out := make([]Provider, 0, len(names))
	for _, n := range names {
		p, err := r.Get(ctx, n, "")
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewDefaultRegistry registers openai, openrouter, gemini and ollama from cfg.
func NewDefaultRegistry(cfg config.Config) *Registry {
	opts := Options{
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		JSONOutput:  true,
	}
	pick := func(model, fallback string) string {
		if m := strings.TrimSpace(model); m != "" {
			return m
		}
		return fallback
	}

	reg := NewRegistry()
	reg.Register("openai", func(_ context.Context, model string) (Provider, error) {
		return NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, pick(model, cfg.OpenAIModel), opts), nil
	})
	reg.Register("openrouter", func(_ context.Context, model string) (Provider, error) {
		return NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, pick(model, cfg.OpenRouterModel),
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName, opts), nil
	})
	reg.Register("gemini", func(_ context.Context, model string) (Provider, error) {
		return NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, pick(model, cfg.GeminiModel), opts), nil
	})
	reg.Register("ollama", func(_ context.Context, model string) (Provider, error) {
		return NewOllamaProvider(cfg.OllamaBaseURL, pick(model, cfg.OllamaModel), opts), nil
	})
	return reg
}
