// Package coach runs the read, advise, append pipeline once per request.
package coach

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/sheetcoach/internal/advisor"
	"github.com/briangreenhill/sheetcoach/internal/workout"
)

// DefaultLimit is how many logged workouts are sent to the advisor
const DefaultLimit = 10

// Result is what one run produced
type Result struct {
	RunID    uuid.UUID
	Workouts []workout.Entry
	Text     string
	Plan     advisor.Plan
	Parsed   bool
	Appended workout.Entry
}

// Pipeline wires the Reader, Advisor and Writer together.
type Pipeline struct {
	Reader  workout.Reader
	Advisor advisor.Advisor
	Writer  workout.Writer
	Limit   int
	Log     zerolog.Logger
}

// Run reads the recent workouts, asks the advisor for a plan and appends it.
// The stages run strictly in order; a failed stage stops the run, so a failed
// completion never produces a row. ErrNoWorkouts is returned, wrapped, when
// nothing has been logged yet.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.New()}
	log := p.Log.With().Str("run_id", res.RunID.String()).Logger()

	limit := p.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	entries, err := p.Reader.Recent(ctx, limit)
	if err != nil {
		log.Error().Err(err).Msg("read failed")
		return res, err
	}
	res.Workouts = entries
	log.Info().Int("workouts", len(entries)).Int("limit", limit).Msg("read recent workouts")
	if len(entries) == 0 {
		log.Warn().Msg("no logged workouts, skipping completion")
		return res, fmt.Errorf("run %s: %w", res.RunID, workout.ErrNoWorkouts)
	}

	text, err := p.Advisor.Advise(ctx, entries)
	if err != nil {
		log.Error().Err(err).Msg("completion failed")
		return res, err
	}
	res.Text = text
	res.Plan, res.Parsed = advisor.ParsePlan(text)
	log.Info().Int("chars", len(text)).Bool("parsed", res.Parsed).Msg("received plan")

	appended, err := p.Writer.Append(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("append failed")
		return res, err
	}
	res.Appended = appended
	log.Info().Str("date", appended.Date).Msg("appended plan")
	return res, nil
}
