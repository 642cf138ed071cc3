// Package inference talks to a hosted model inference endpoint
// (POST {base}/models/{model} with bearer auth).
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/teamboard/teamboard/internal/config"
)

// Kind groups models by the task they perform.
type Kind string

const (
	KindTextGeneration Kind = "text-generation"
	KindSentiment      Kind = "sentiment"
)

// Model is a candidate remote model.
type Model struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Polarity is the coarse outcome of a sentiment classification.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// Sentiment is the top-ranked label returned by a sentiment model.
type Sentiment struct {
	Polarity Polarity
	Score    float64
}

// Request is the endpoint's request body.
type Request struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// ErrDisabled is returned when no token is configured.
var ErrDisabled = errors.New("inference disabled: no api token configured")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference api status %d: %s", e.Status, e.Message)
}

// Client calls the inference endpoint over fasthttp. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.InferenceConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		timeout: cfg.Timeout(),
		http: &fasthttp.Client{
			Name:                "teamboard",
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// Enabled reports whether a token is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.token != ""
}

// Query posts req to model and returns the raw response body.
func (c *Client) Query(ctx context.Context, model string, req Request) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq := fasthttp.AcquireRequest()
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(httpReq)
	defer fasthttp.ReleaseResponse(httpResp)

	httpReq.SetRequestURI(c.baseURL + "/models/" + model)
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.SetBody(body)

	if err := c.http.DoTimeout(httpReq, httpResp, c.callTimeout(ctx)); err != nil {
		return nil, fmt.Errorf("inference %s: %w", model, err)
	}

	status := httpResp.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(httpResp.Body(), &errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(status)
		}
		return nil, &APIError{Status: status, Message: errBody.Error}
	}

	out := make([]byte, len(httpResp.Body()))
	copy(out, httpResp.Body())
	return out, nil
}

func (c *Client) callTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return timeout
}

// Probe checks that model answers at all.
func (c *Client) Probe(ctx context.Context, model Model) error {
	req := Request{Inputs: "The task was completed on time.", Options: map[string]any{"wait_for_model": false}}
	if model.Kind == KindTextGeneration {
		req.Parameters = map[string]any{"max_new_tokens": 1}
	}
	_, err := c.Query(ctx, model.Name, req)
	return err
}

// GenerateText returns the continuation produced for prompt.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	raw, err := c.Query(ctx, model, Request{
		Inputs: prompt,
		Parameters: map[string]any{
			"max_new_tokens":   20,
			"return_full_text": false,
		},
		Options: map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return "", err
	}
	var out []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode text generation: %w", err)
	}
	if len(out) == 0 {
		return "", errors.New("empty text generation response")
	}
	return out[0].GeneratedText, nil
}

type label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifySentiment returns the highest scoring sentiment label for text.
func (c *Client) ClassifySentiment(ctx context.Context, model, text string) (Sentiment, error) {
	raw, err := c.Query(ctx, model, Request{Inputs: text, Options: map[string]any{"wait_for_model": true}})
	if err != nil {
		return Sentiment{}, err
	}

	var nested [][]label
	var labels []label
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		labels = nested[0]
	} else if err := json.Unmarshal(raw, &labels); err != nil {
		return Sentiment{}, fmt.Errorf("decode sentiment: %w", err)
	}
	if len(labels) == 0 {
		return Sentiment{}, errors.New("empty sentiment response")
	}

	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return Sentiment{Polarity: polarityOf(best.Label), Score: best.Score}, nil
}

func polarityOf(label string) Polarity {
	switch strings.ToUpper(label) {
	case "POSITIVE", "POS", "LABEL_2":
		return PolarityPositive
	case "NEGATIVE", "NEG", "LABEL_0":
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}
