package coach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/briangreenhill/sheetcoach/internal/advisor"
	"github.com/briangreenhill/sheetcoach/internal/sheet"
	"github.com/briangreenhill/sheetcoach/internal/workout"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 17, 7, 30, 0, 0, time.UTC) }

func newPipeline(store workout.Store, c advisor.Completer) *Pipeline {
	return &Pipeline{
		Reader:  workout.Reader{Store: store},
		Advisor: advisor.Advisor{Completer: c, System: "sys"},
		Writer:  workout.Writer{Store: store, Now: fixedNow},
		Log:     zerolog.Nop(),
	}
}

func seeded() *sheet.MemoryStore {
	return sheet.NewMemoryStore(
		workout.StandardHeader,
		[]string{"2026-10-14", "workout_log", "5x5 squat", "heavy", ""},
		[]string{"2026-10-15", "workout_log", "bench 3x8", "", ""},
	)
}

func TestRunAppendsOnePlan(t *testing.T) {
	store := seeded()
	reply := `{"tips":"sleep more","next_workout":"deadlift 3x5"}`
	p := newPipeline(store, &fakeCompleter{reply: reply})

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Len(t, res.Workouts, 2)
	assert.Equal(t, reply, res.Text)
	assert.True(t, res.Parsed)
	assert.Equal(t, "deadlift 3x5", res.Plan.NextWorkout)

	values, _ := store.Values(context.Background())
	require.Len(t, values, 4)
	last := values[3]
	assert.Equal(t, []string{"2026-10-17 07:30", "ai_plan", "", "", reply}, last)
	assert.Equal(t, workout.CategoryPlan, res.Appended.Category)
	assert.Equal(t, "2026-10-17 07:30", res.Appended.Date)
}

func TestRunKeepsUnparsedText(t *testing.T) {
	store := seeded()
	p := newPipeline(store, &fakeCompleter{reply: "Just run 5k."})

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Parsed)
	assert.Equal(t, "Just run 5k.", res.Appended.Output)
	assert.Equal(t, 4, store.Len())
}

func TestRunAdvisorFailureAppendsNothing(t *testing.T) {
	store := seeded()
	boom := errors.New("quota exceeded")
	p := newPipeline(store, &fakeCompleter{err: boom})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, store.Len())
}

func TestRunTwiceAppendsTwice(t *testing.T) {
	store := seeded()
	c := &fakeCompleter{reply: "plan"}
	p := newPipeline(store, c)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 5, store.Len())
	assert.Equal(t, 2, c.calls)
	// generated rows are never fed back into the prompt
	assert.Len(t, second.Workouts, 2)
}

func TestRunWithoutWorkoutsSkipsCompletion(t *testing.T) {
	store := sheet.NewMemoryStore()
	c := &fakeCompleter{reply: "plan"}
	p := newPipeline(store, c)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, workout.ErrNoWorkouts)
	assert.Zero(t, c.calls)
	assert.Equal(t, 1, store.Len())
}

func TestRunHonoursLimit(t *testing.T) {
	store := seeded()
	p := newPipeline(store, &fakeCompleter{reply: "plan"})
	p.Limit = 1

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Workouts, 1)
	assert.Equal(t, "bench 3x8", res.Workouts[0].Description)
}

type failingStore struct{ *sheet.MemoryStore }

func (failingStore) Values(context.Context) ([][]string, error) {
	return nil, errors.New("sheet offline")
}

func TestRunReadFailure(t *testing.T) {
	c := &fakeCompleter{reply: "plan"}
	p := newPipeline(failingStore{sheet.NewMemoryStore()}, c)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet offline")
	assert.Zero(t, c.calls)
}
