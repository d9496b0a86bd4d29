// Package llm wraps the hosted language models used for drug name extraction,
// safety assessment and review sentiment.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	ProviderGemini = "gemini"
	ProviderCohere = "cohere"
)

// Image is an inline image attached to a request.
type Image struct {
	Data     []byte
	MIMEType string
}

type Request struct {
	Prompt string
	Image  *Image
	// JSON asks the provider for a JSON-only answer when it supports one.
	JSON        bool
	Temperature float32
}

// Generator produces a single text completion for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

type Config struct {
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	CohereAPIKey  string
	CohereModel   string
	CohereBaseURL string

	Timeout time.Duration
}

// New builds the generator for cfg.Provider.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		return NewGemini(ctx, GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.Timeout,
		}, logger)
	case ProviderCohere:
		return NewCohere(CohereConfig{
			APIKey:  cfg.CohereAPIKey,
			Model:   cfg.CohereModel,
			BaseURL: cfg.CohereBaseURL,
			Timeout: cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown reasoning provider %q", cfg.Provider)
	}
}
