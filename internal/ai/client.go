// Package ai generates goal plans and advice with Google's Gemini
// generateContent REST endpoint.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

// Defaults.
const (
	DefaultModel   = "gemini-3-flash-preview"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultTimeout = 60 * time.Second

	// FallbackAdvice is returned when the model answers with no text.
	FallbackAdvice = "Keep going, consistency is key!"

	maxErrorBody = 64 << 10
)

// Config selects the key, model, and endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client calls the generative service.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. Empty Model and BaseURL take the defaults.
// A missing APIKey is only reported when a call is made.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// GeneratePlan turns a free-form dream into a structured goal plan.
func (c *Client) GeneratePlan(ctx context.Context, dream string) (*model.Plan, error) {
	text, err := c.generate(ctx, planPrompt(dream), planSchema())
	if err != nil {
		return nil, err
	}

	if text == "" {
		return nil, ErrEmptyResponse
	}

	plan, err := decodePlan(text)
	if err != nil {
		return nil, err
	}

	c.logger.Info("generated goal plan",
		slog.String("title", plan.Title),
		slog.String("aspect", string(plan.Aspect)),
		slog.Int("milestones", len(plan.Milestones)),
		slog.Int("habits", len(plan.Habits)),
	)

	return plan, nil
}

// Advice returns a short paragraph of encouragement for a goal at the given
// progress percentage.
func (c *Client) Advice(ctx context.Context, goalTitle string, progress int) (string, error) {
	text, err := c.generate(ctx, advicePrompt(goalTitle, progress), nil)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackAdvice, nil
	}

	return text, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType"`
	ResponseSchema   any    `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// generate sends one prompt and returns the concatenated text of the first
// candidate. A non-nil schema requests a JSON response.
func (c *Client) generate(ctx context.Context, prompt string, schema any) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrMissingCredential
	}

	req := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	if schema != nil {
		req.GenerationConfig = &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("ai: encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ai: calling %s: %w", c.cfg.Model, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("model responded",
		slog.String("model", c.cfg.Model),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return "", c.serviceError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ai: decoding response: %w", err)
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	return sb.String(), nil
}

func (c *Client) serviceError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	se := &ServiceError{StatusCode: resp.StatusCode, Message: string(raw)}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Message != "" {
		se.Status = er.Error.Status
		se.Message = er.Error.Message
	}

	if revoked(se.Status, se.Message) {
		se.Err = ErrRevokedCredential
	}

	c.logger.Warn("model request failed",
		slog.String("model", c.cfg.Model),
		slog.Int("status", se.StatusCode),
		slog.String("error_status", se.Status),
	)

	return se
}

// decodePlan parses the model's JSON plan. Durations may come back as
// fractional numbers and are rounded to whole minutes.
func decodePlan(text string) (*model.Plan, error) {
	var raw struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Aspect      string   `json:"aspect"`
		Milestones  []string `json:"milestones"`
		Habits      []struct {
			Title    string   `json:"title"`
			Duration *float64 `json:"duration"`
		} `json:"habits"`
		MotivationalQuote string `json:"motivationalQuote"`
	}

	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("ai: decoding plan: %w", err)
	}

	aspect, err := model.ParseAspect(raw.Aspect)
	if err != nil {
		return nil, fmt.Errorf("ai: decoding plan: %w", err)
	}

	plan := &model.Plan{
		Title:             strings.TrimSpace(raw.Title),
		Description:       strings.TrimSpace(raw.Description),
		Aspect:            aspect,
		Milestones:        raw.Milestones,
		MotivationalQuote: strings.TrimSpace(raw.MotivationalQuote),
	}

	if plan.Title == "" {
		return nil, fmt.Errorf("ai: decoding plan: %w", ErrEmptyResponse)
	}

	for _, h := range raw.Habits {
		ph := model.PlanHabit{Title: strings.TrimSpace(h.Title)}
		if h.Duration != nil && *h.Duration > 0 {
			d := int(math.Round(*h.Duration))
			ph.Duration = &d
		}

		plan.Habits = append(plan.Habits, ph)
	}

	return plan, nil
}
