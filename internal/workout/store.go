package workout

import (
	"context"
	"fmt"
	"time"
)

// Store is the tabular backend holding the workout tab.
type Store interface {
	// Values returns every row of the tab, header first
	Values(ctx context.Context) ([][]string, error)
	// Header returns the first row of the tab, empty if the tab is empty
	Header(ctx context.Context) ([]string, error)
	// Append adds one row after the last populated row
	Append(ctx context.Context, row []string) error
}

// Reader fetches recent manually logged workouts
type Reader struct {
	Store Store
}

// Recent returns the last n manually logged workouts in sheet order.
func (r Reader) Recent(ctx context.Context, n int) ([]Entry, error) {
	values, err := r.Store.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("read workouts: %w", err)
	}
	return Recent(values, n), nil
}

// DateLayout is how the Writer stamps generated rows
const DateLayout = "2006-01-02 15:04"

// Writer appends generated plans to the tab
type Writer struct {
	Store Store
	Now   func() time.Time
}

// Append writes one generated-plan row holding text and returns what it wrote.
func (w Writer) Append(ctx context.Context, text string) (Entry, error) {
	header, err := w.Store.Header(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("read header: %w", err)
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	date := now().Format(DateLayout)

	row := ParseHeader(header).PlanRow(date, text)
	if err := w.Store.Append(ctx, row); err != nil {
		return Entry{}, fmt.Errorf("append plan: %w", err)
	}
	return Entry{Date: date, Category: CategoryPlan, Output: text}, nil
}
