package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/briangreenhill/sheetcoach/internal/failure"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4.1-2025-04-14"
	temperature          = 0.4
)

// OpenAIClient talks to the Chat Completions endpoint
type OpenAIClient struct {
	http    *http.Client
	baseURL *url.URL
	apiKey  string
	model   string
}

type Option func(*OpenAIClient)

func WithHTTPClient(h *http.Client) Option {
	return func(c *OpenAIClient) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *OpenAIClient) {
		if u, err := url.Parse(raw); err == nil && raw != "" {
			c.baseURL = u
		}
	}
}

func WithModel(model string) Option {
	return func(c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

func NewOpenAI(apiKey string, opts ...Option) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai: apiKey required")
	}
	u, _ := url.Parse(DefaultOpenAIBaseURL)
	c := &OpenAIClient{
		http:    http.DefaultClient,
		baseURL: u,
		apiKey:  apiKey,
		model:   DefaultOpenAIModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *OpenAIClient) Name() string { return "openai" }

// Model returns the model requests are sent to
func (c *OpenAIClient) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one chat completion request. Failures are returned as-is,
// tagged with their failure class; nothing is retried.
func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	var messages []chatMessage
	if strings.TrimSpace(system) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, Temperature: temperature})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, "chat/completions")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if failure.IsTransport(err) {
			return "", failure.Wrap(failure.ErrConnectivity, err)
		}
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", failure.Wrap(failure.ErrConnectivity, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("POST %s: %s: %s", u.Path, resp.Status, strings.TrimSpace(string(data)))
		if sentinel := failure.FromStatus(resp.StatusCode); sentinel != nil {
			return "", failure.Wrap(sentinel, err)
		}
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", failure.Wrap(failure.ErrMalformed, fmt.Errorf("decode response: %w", err))
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai error (%s): %s", out.Error.Type, out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", failure.Wrap(failure.ErrMalformed, errors.New("no completion returned"))
	}
	return out.Choices[0].Message.Content, nil
}

var _ Completer = (*OpenAIClient)(nil)
