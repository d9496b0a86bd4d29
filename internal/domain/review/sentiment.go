package review

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/medreview/medreview/internal/platform/llm"
)

// SentimentScorer rates free text from -1 (negative) to 1 (positive).
type SentimentScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

const sentimentPrompt = `Rate the sentiment of the following medicine review on a scale from -1 to 1, where -1 is very negative, 0 is neutral and 1 is very positive.
Return ONLY the number, nothing else.

Review: `

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ModelSentimentScorer asks a language model for the score.
type ModelSentimentScorer struct {
	gen llm.Generator
}

func NewModelSentimentScorer(gen llm.Generator) *ModelSentimentScorer {
	return &ModelSentimentScorer{gen: gen}
}

func (s *ModelSentimentScorer) Score(ctx context.Context, text string) (float64, error) {
	out, err := s.gen.Generate(ctx, llm.Request{Prompt: sentimentPrompt + text, Temperature: 0})
	if err != nil {
		return 0, fmt.Errorf("score sentiment: %w", err)
	}
	return parseScore(out)
}

func parseScore(out string) (float64, error) {
	match := numberPattern.FindString(strings.TrimSpace(out))
	if match == "" {
		return 0, fmt.Errorf("no score in model output %q", out)
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", match, err)
	}
	if v < -1 || v > 1 {
		return 0, fmt.Errorf("score %v out of range", v)
	}
	return v, nil
}
