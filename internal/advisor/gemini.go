package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/briangreenhill/sheetcoach/internal/failure"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the slice of genai.Models we use
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient generates completions with the Gemini API
type GeminiClient struct {
	models contentGenerator
	model  string
}

// NewGemini creates a Gemini backend. httpClient may be nil.
func NewGemini(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: apiKey required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGemini(client.Models, model), nil
}

func newGemini(models contentGenerator, model string) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{models: models, model: model}
}

func (g *GeminiClient) Name() string { return "gemini" }

// Model returns the model requests are sent to
func (g *GeminiClient) Model() string { return g.model }

func (g *GeminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](temperature),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classifyGemini(err)
	}
	if resp == nil {
		return "", failure.Wrap(failure.ErrMalformed, errors.New("empty gemini response"))
	}
	text := resp.Text()
	if text == "" {
		return "", failure.Wrap(failure.ErrMalformed, errors.New("no completion returned"))
	}
	return text, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if sentinel := failure.FromStatus(apiErr.Code); sentinel != nil {
			return failure.Wrap(sentinel, err)
		}
		return err
	}
	if failure.IsTransport(err) {
		return failure.Wrap(failure.ErrConnectivity, err)
	}
	return err
}

var _ Completer = (*GeminiClient)(nil)
