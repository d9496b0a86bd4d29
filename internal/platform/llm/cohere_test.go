package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCohere_Generate(t *testing.T) {
	var got cohereChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"id":"x","message":{"role":"assistant","content":[{"type":"text","text":"{\"can_take\": true,"},{"type":"text","text":" \"warning\": null}"}]}}`))
	}))
	defer srv.Close()

	c := NewCohere(CohereConfig{APIKey: "secret", BaseURL: srv.URL}, zerolog.Nop())
	out, err := c.Generate(context.Background(), Request{
		Prompt: "assess",
		Image:  &Image{Data: []byte{1, 2, 3}, MIMEType: "image/png"},
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if out != `{"can_take": true, "warning": null}` {
		t.Errorf("unexpected output %q", out)
	}

	if got.Model != DefaultCohereModel {
		t.Errorf("expected default model, got %s", got.Model)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if len(got.Messages) != 1 || len(got.Messages[0].Content) != 2 {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
	img := got.Messages[0].Content[1]
	if img.Type != "image_url" || img.ImageURL == nil || !strings.HasPrefix(img.ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("unexpected image part %+v", img)
	}
}

func TestCohere_Generate_TextOnly(t *testing.T) {
	var got cohereChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message":{"content":[{"type":"text","text":"ibuprofen"}]}}`))
	}))
	defer srv.Close()

	c := NewCohere(CohereConfig{BaseURL: srv.URL, Model: "command-r"}, zerolog.Nop())
	out, err := c.Generate(context.Background(), Request{Prompt: "Advil"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if out != "ibuprofen" {
		t.Errorf("unexpected output %q", out)
	}
	if got.ResponseFormat != nil {
		t.Error("expected no response format for plain text request")
	}
	if got.Model != "command-r" || len(got.Messages[0].Content) != 1 {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestCohere_Generate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"api error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"invalid api token"}`))
		}, "invalid api token"},
		{"bare status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}, "status 503"},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}, "decode chat response"},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, "cohere chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewCohere(CohereConfig{BaseURL: srv.URL, Timeout: 200 * time.Millisecond}, zerolog.Nop())
			_, err := c.Generate(context.Background(), Request{Prompt: "x"})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
