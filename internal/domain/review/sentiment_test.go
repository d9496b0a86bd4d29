package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medreview/medreview/internal/platform/llm"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.75", 0.75, false},
		{" -1 \n", -1, false},
		{"Score: 0.2", 0.2, false},
		{"1", 1, false},
		{"1.5", 0, true},
		{"-3", 0, true},
		{"positive", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseScore(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseScore(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseScore(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModelSentimentScorer(t *testing.T) {
	var prompt string
	s := NewModelSentimentScorer(llm.GeneratorFunc(func(_ context.Context, req llm.Request) (string, error) {
		prompt = req.Prompt
		return "0.9", nil
	}))
	got, err := s.Score(context.Background(), "Great, no side effects")
	if err != nil || got != 0.9 {
		t.Fatalf("Score() = %v, %v", got, err)
	}
	if !strings.HasSuffix(prompt, "Great, no side effects") {
		t.Errorf("review text missing from prompt: %q", prompt)
	}

	failing := NewModelSentimentScorer(llm.GeneratorFunc(func(context.Context, llm.Request) (string, error) {
		return "", errors.New("timeout")
	}))
	if _, err := failing.Score(context.Background(), "x"); err == nil {
		t.Error("expected generator error to propagate")
	}
}
