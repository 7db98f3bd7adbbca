// Package relay forwards chat requests to the upstream completion API so the
// API key never leaves the server.
package relay

import (
	"bytes"
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
	DefaultUpstreamURL   = "https://api.deepseek.com/v1/chat/completions"
	DefaultModel         = "deepseek-chat"
	DefaultSystemMessage = "You are a helpful assistant."
	Temperature          = 0.7

	msgMethodNotAllowed = "Method not allowed"
	msgMissingKey       = "Server Config Error: Missing API Key"
	msgUpstreamFailed   = "DeepSeek API Error"
)

var errMissingMessages = errors.New("invalid request body: messages is required")

type Config struct {
	APIKey      string
	UpstreamURL string
	Model       string
}

type Handler struct {
	cfg    Config
	client *http.Client
	logger *log.Logger
}

type upstreamRequest struct {
	Model       string              `json:"model"`
	Messages    []model.ChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
}

type upstreamError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewHandler(cfg Config, client *http.Client, logger *log.Logger) *Handler {
	if cfg.UpstreamURL == "" {
		cfg.UpstreamURL = DefaultUpstreamURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Handler{cfg: cfg, client: client, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{Error: msgMethodNotAllowed})
		return
	}
	if h.cfg.APIKey == "" {
		h.logger.Println("rejecting chat request: no API key configured")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: msgMissingKey})
		return
	}

	body, err := h.forward(r)
	if err != nil {
		h.logger.Printf("chat relay failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// forward returns the upstream body untouched on success.
func (h *Handler) forward(r *http.Request) ([]byte, error) {
	var in model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if in.Messages == nil {
		return nil, errMissingMessages
	}

	system := in.SystemPrompt
	if system == "" {
		system = DefaultSystemMessage
	}
	messages := make([]model.ChatMessage, 0, len(in.Messages)+1)
	messages = append(messages, model.ChatMessage{Role: "system", Content: system})
	messages = append(messages, in.Messages...)

	payload, err := json.Marshal(upstreamRequest{
		Model:       h.cfg.Model,
		Messages:    messages,
		Temperature: Temperature,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.cfg.UpstreamURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	h.logger.Printf("upstream %s answered %d in %v", h.cfg.UpstreamURL, resp.StatusCode, time.Since(start))

	if !json.Valid(raw) {
		return nil, fmt.Errorf("upstream returned invalid JSON (status %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ue upstreamError
		if json.Unmarshal(raw, &ue) == nil && ue.Error != nil && ue.Error.Message != "" {
			return nil, errors.New(ue.Error.Message)
		}
		return nil, errors.New(msgUpstreamFailed)
	}
	return raw, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
