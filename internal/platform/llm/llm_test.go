package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_SelectsProvider(t *testing.T) {
	g, err := New(context.Background(), Config{Provider: "Cohere", CohereAPIKey: "k"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, ok := g.(*Cohere); !ok {
		t.Errorf("expected *Cohere, got %T", g)
	}

	g, err = New(context.Background(), Config{Provider: "gemini", GeminiAPIKey: "k"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, ok := g.(*Gemini); !ok {
		t.Errorf("expected *Gemini, got %T", g)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: "openai"}, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestGeneratorFunc(t *testing.T) {
	var got Request
	g := GeneratorFunc(func(_ context.Context, req Request) (string, error) {
		got = req
		return "ok", nil
	})
	out, err := g.Generate(context.Background(), Request{Prompt: "p", JSON: true})
	if err != nil || out != "ok" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
	if got.Prompt != "p" || !got.JSON {
		t.Errorf("request not passed through: %+v", got)
	}
}

func TestGemini_Generate(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"acetaminophen"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "k", BaseURL: srv.URL}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewGemini() error: %v", err)
	}
	out, err := g.Generate(context.Background(), Request{Prompt: "Tylenol"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if out != "acetaminophen" {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(path, DefaultGeminiModel+":generateContent") {
		t.Errorf("unexpected request path %s", path)
	}
}
