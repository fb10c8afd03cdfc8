// Package prompt handles the coach's system prompt
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Generator resolves the system prompt (custom file or default)
type Generator struct {
	CustomPath string
	Log        zerolog.Logger
}

// NewGenerator creates a new prompt generator
func NewGenerator(customPath string, log zerolog.Logger) *Generator {
	return &Generator{CustomPath: customPath, Log: log}
}

// Generate returns the custom prompt when one is configured, else the default
func (g *Generator) Generate() (string, error) {
	if g.CustomPath == "" {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(g.CustomPath)
	if err != nil {
		return "", fmt.Errorf("read coaching prompt %s: %w", g.CustomPath, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("coaching prompt %s is empty", g.CustomPath)
	}
	return text, nil
}

// GenerateWithFallback returns the prompt, falling back to the default on error
func (g *Generator) GenerateWithFallback() string {
	p, err := g.Generate()
	if err != nil {
		g.Log.Warn().Err(err).Msg("using default coaching prompt")
		return GetDefault()
	}
	return p
}
