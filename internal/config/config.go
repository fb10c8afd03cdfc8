// Package config handles application configuration from environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Store backends
const (
	StoreSheets   = "sheets"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// SessionSecret signs the run-button form token. Random per process when empty.
	SessionSecret string `env:"SESSION_SECRET"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sheets"`
	Sheets       SheetsConfig
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"sheetcoach.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	LLMProvider  string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAI       OpenAIConfig
	Gemini       GeminiConfig
	PromptPath   string `env:"COACHING_PROMPT_PATH"`
	WorkoutLimit int    `env:"WORKOUT_LIMIT" envDefault:"10"`
}

// SheetsConfig holds Google Sheets configuration
type SheetsConfig struct {
	SpreadsheetID       string `env:"GOOGLE_SHEETS_ID"`
	Tab                 string `env:"SHEET_TAB" envDefault:"Workouts"`
	ServiceAccountEmail string `env:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	PrivateKey          string `env:"GOOGLE_PRIVATE_KEY"`
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	Model   string `env:"OPENAI_MODEL" envDefault:"gpt-4.1-2025-04-14"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
}

// GeminiConfig holds Gemini configuration
type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

// Load reads an optional .env file and then the environment. Variables that
// are already set win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.Sheets.PrivateKey = NormalizePrivateKey(cfg.Sheets.PrivateKey)
	return &cfg, nil
}

// NormalizePrivateKey turns literal \n sequences (as found in .env files)
// into newlines and strips surrounding quotes.
func NormalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"`)
	return strings.ReplaceAll(key, `\n`, "\n")
}

// HasSheets returns true if Google Sheets configuration is complete
func (c *Config) HasSheets() bool {
	s := c.Sheets
	return s.SpreadsheetID != "" && s.Tab != "" && s.ServiceAccountEmail != "" && s.PrivateKey != ""
}

// HasOpenAI returns true if an OpenAI key is configured
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasGemini returns true if a Gemini key is configured
func (c *Config) HasGemini() bool {
	return c.Gemini.APIKey != ""
}

// Level parses LogLevel, defaulting to info
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate ensures the selected store and provider have their credentials
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreSheets:
		if !c.HasSheets() {
			errs = append(errs, errors.New("sheets store needs GOOGLE_SHEETS_ID, GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite store needs SQLITE_PATH"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres store needs DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if !c.HasOpenAI() {
			errs = append(errs, errors.New("openai provider needs OPENAI_API_KEY"))
		}
	case ProviderGemini:
		if !c.HasGemini() {
			errs = append(errs, errors.New("gemini provider needs GEMINI_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	if c.WorkoutLimit < 1 {
		errs = append(errs, fmt.Errorf("WORKOUT_LIMIT must be at least 1, got %d", c.WorkoutLimit))
	}

	return errors.Join(errs...)
}
