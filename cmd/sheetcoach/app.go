package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/sheetcoach/internal/advisor"
	"github.com/briangreenhill/sheetcoach/internal/auth"
	"github.com/briangreenhill/sheetcoach/internal/coach"
	"github.com/briangreenhill/sheetcoach/internal/config"
	"github.com/briangreenhill/sheetcoach/internal/failure"
	"github.com/briangreenhill/sheetcoach/internal/http/routes"
	"github.com/briangreenhill/sheetcoach/internal/prompt"
	"github.com/briangreenhill/sheetcoach/internal/sheet"
	"github.com/briangreenhill/sheetcoach/internal/workout"
	"github.com/briangreenhill/sheetcoach/web"
)

// openStore builds the configured store. The returned func releases it.
func openStore(ctx context.Context, c *config.Config) (workout.Store, func(), error) {
	noop := func() {}
	switch c.StoreBackend {
	case config.StoreSheets:
		s, err := sheet.NewGoogleStore(ctx, sheet.ServiceAccount{
			Email:      c.Sheets.ServiceAccountEmail,
			PrivateKey: c.Sheets.PrivateKey,
		}, c.Sheets.SpreadsheetID, c.Sheets.Tab)
		return s, noop, err
	case config.StoreSQLite:
		s, err := sheet.NewSQLiteStore(c.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StorePostgres:
		s, err := sheet.NewPostgresStore(ctx, c.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", c.StoreBackend)
}

// memoryCopy snapshots store into memory so appends stay local
func memoryCopy(ctx context.Context, store workout.Store) (*sheet.MemoryStore, error) {
	values, err := store.Values(ctx)
	if err != nil {
		return nil, err
	}
	return sheet.NewMemoryStore(values...), nil
}

// completers registers every backend that has credentials
func completers(ctx context.Context, c *config.Config) (*advisor.Registry, error) {
	registry := advisor.NewRegistry()
	httpClient := &http.Client{Timeout: 2 * time.Minute}

	if c.HasOpenAI() {
		oc, err := advisor.NewOpenAI(c.OpenAI.APIKey,
			advisor.WithHTTPClient(httpClient),
			advisor.WithBaseURL(c.OpenAI.BaseURL),
			advisor.WithModel(c.OpenAI.Model),
		)
		if err != nil {
			return nil, err
		}
		registry.Register(oc)
	}
	if c.HasGemini() {
		gc, err := advisor.NewGemini(ctx, c.Gemini.APIKey, c.Gemini.Model, httpClient)
		if err != nil {
			return nil, err
		}
		registry.Register(gc)
	}
	return registry, nil
}

func systemPrompt() string {
	return prompt.NewGenerator(cfg.PromptPath, logger).GenerateWithFallback()
}

// buildPipeline wires the store and the selected model backend
func buildPipeline(ctx context.Context) (*coach.Pipeline, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	if dryStore {
		mem, err := memoryCopy(ctx, store)
		closeStore()
		if err != nil {
			return nil, nil, fmt.Errorf("copy store: %w", err)
		}
		logger.Warn().Msg("dry store: plans are appended in memory only")
		store, closeStore = mem, func() {}
	}

	registry, err := completers(ctx, cfg)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	completer, ok := registry.Get(cfg.LLMProvider)
	if !ok {
		closeStore()
		return nil, nil, fmt.Errorf("provider %q not available (configured: %v)", cfg.LLMProvider, registry.List())
	}

	p := &coach.Pipeline{
		Reader:  workout.Reader{Store: store},
		Advisor: advisor.Advisor{Completer: completer, System: systemPrompt()},
		Writer:  workout.Writer{Store: store},
		Limit:   cfg.WorkoutLimit,
		Log:     logger,
	}
	logger.Info().
		Str("store", cfg.StoreBackend).
		Str("provider", completer.Name()).
		Int("limit", cfg.WorkoutLimit).
		Msg("pipeline ready")
	return p, closeStore, nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, done, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer done()

	res, err := p.Run(ctx)
	out := cmd.OutOrStdout()
	if errors.Is(err, workout.ErrNoWorkouts) {
		fmt.Fprintln(out, "No workouts logged yet. Add a workout_log row and try again.")
		return nil
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), failure.Message(err))
		return err
	}

	fmt.Fprintf(out, "Plan appended %s (based on %d workouts)\n\n", res.Appended.Date, len(res.Workouts))
	if res.Parsed {
		fmt.Fprintf(out, "Next workout:\n%s\n\nTips:\n%s\n", res.Plan.NextWorkout, res.Plan.Tips)
		return nil
	}
	fmt.Fprintln(out, res.Text)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, done, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer done()

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = auth.NewSecret()
	}

	s := routes.New(routes.ServerOptions{
		Tmpl:     tmpl,
		Pipeline: p,
		Secret:   secret,
		Limit:    cfg.WorkoutLimit,
		Log:      logger,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting web UI")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}
