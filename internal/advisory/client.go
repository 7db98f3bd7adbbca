// Package advisory asks the chat relay for a short wellness note about today's checkup.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"checkup-kiosk/internal/model"
)

const (
	SystemPrompt = "你是一位中医康养专家。请结合用户的身体信息和今日检测数据给出建议。语气要温和，像家人一样。"
	FallbackText = "AI解析暂时不可用。但从指标看，您今天状态极佳。注意保持好心情！"

	defaultTimeout = 30 * time.Second
)

var errNoChoices = errors.New("relay returned no choices")

// Speaker reads text aloud. Implementations must not block the caller for long;
// the client runs them on their own goroutine anyway.
type Speaker interface {
	Speak(text string)
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	speaker    Speaker
	logger     *log.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithSpeaker enables read-aloud of successful advice. A nil speaker disables it.
func WithSpeaker(s Speaker) Option {
	return func(cl *Client) { cl.speaker = s }
}

func WithLogger(l *log.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient targets the relay at endpoint, e.g. http://127.0.0.1:8080/api/chat.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// UserMessage renders the templated prompt for a profile and today's scores.
func UserMessage(p model.UserProfile, s model.ScoreSummary) string {
	return fmt.Sprintf("用户资料：%s, %d岁, 基础病:%s。今日检测分数:%d，%s。请给出100字建议。",
		p.Name, p.Age, p.MedicalHistory, s.HealthScore, s.Narrative)
}

// RequestAdvice issues exactly one request. It never fails: any problem yields FallbackText.
// Concurrent calls are independent of each other.
func (c *Client) RequestAdvice(ctx context.Context, p model.UserProfile, s model.ScoreSummary) string {
	text, err := c.fetch(ctx, p, s)
	if err != nil {
		c.logger.Printf("advice request failed, using fallback: %v", err)
		return FallbackText
	}
	if c.speaker != nil {
		go c.speaker.Speak(text)
	}
	return text
}

func (c *Client) fetch(ctx context.Context, p model.UserProfile, s model.ScoreSummary) (string, error) {
	body, err := json.Marshal(model.ChatRequest{
		SystemPrompt: SystemPrompt,
		Messages:     []model.ChatMessage{{Role: "user", Content: UserMessage(p, s)}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	c.logger.Printf("relay answered %d in %v", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e model.ErrorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return "", fmt.Errorf("relay status %d: %s", resp.StatusCode, e.Error)
		}
		return "", fmt.Errorf("relay status %d", resp.StatusCode)
	}

	var out model.ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errNoChoices
	}
	return out.Choices[0].Message.Content, nil
}
