package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medreview/medreview/internal/platform/metrics"
)

const (
	DefaultCohereBaseURL = "https://api.cohere.com"
	DefaultCohereModel   = "command-a-vision-07-2025"
)

type CohereConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Cohere calls the v2 chat endpoint.
type Cohere struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  zerolog.Logger
}

func NewCohere(cfg CohereConfig, logger zerolog.Logger) *Cohere {
	if cfg.Model == "" {
		cfg.Model = DefaultCohereModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCohereBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Cohere{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		logger:  logger.With().Str("component", "cohere").Logger(),
	}
}

type cohereContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *cohereImageURL `json:"image_url,omitempty"`
}

type cohereImageURL struct {
	URL string `json:"url"`
}

type cohereMessage struct {
	Role    string          `json:"role"`
	Content []cohereContent `json:"content"`
}

type cohereChatRequest struct {
	Model          string                `json:"model"`
	Messages       []cohereMessage       `json:"messages"`
	Temperature    float32               `json:"temperature"`
	ResponseFormat *cohereResponseFormat `json:"response_format,omitempty"`
}

type cohereResponseFormat struct {
	Type string `json:"type"`
}

type cohereChatResponse struct {
	Message struct {
		Content []cohereContent `json:"content"`
	} `json:"message"`
}

type cohereError struct {
	Message string `json:"message"`
}

func (c *Cohere) Generate(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := []cohereContent{{Type: "text", Text: req.Prompt}}
	if req.Image != nil {
		uri := "data:" + req.Image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
		content = append(content, cohereContent{Type: "image_url", ImageURL: &cohereImageURL{URL: uri}})
	}
	payload := cohereChatRequest{
		Model:       c.model,
		Messages:    []cohereMessage{{Role: "user", Content: content}},
		Temperature: req.Temperature,
	}
	if req.JSON {
		payload.ResponseFormat = &cohereResponseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.ObserveUpstream("cohere", "chat", start)
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr cohereError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("cohere chat: status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("cohere chat: status %d", resp.StatusCode)
	}

	var out cohereChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	var sb strings.Builder
	for _, part := range out.Message.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	c.logger.Debug().Str("model", c.model).Int("chars", sb.Len()).Msg("chat complete")
	return sb.String(), nil
}
