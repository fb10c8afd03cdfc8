// Package workout maps spreadsheet rows onto workout entries and back.
package workout

import (
	"errors"
	"strings"
)

// ErrNoWorkouts is returned when the tab holds no manually logged workouts yet
var ErrNoWorkouts = errors.New("no workout_log rows found yet")

// Category tags a row as either logged by hand or generated by the coach
type Category string

const (
	CategoryWorkoutLog Category = "workout_log"
	CategoryPlan       Category = "ai_plan"
)

// Entry is one row of the workout tab
type Entry struct {
	Date        string   `json:"date"`
	Category    Category `json:"category"`
	Description string   `json:"workout"`
	Notes       string   `json:"notes"`
	Output      string   `json:"output,omitempty"`
}

// Layout is the column arrangement of a tab, detected from its header row
type Layout int

const (
	// LayoutStandard is date | category | description | notes | output
	LayoutStandard Layout = iota
	// LayoutSetLog is Week | Date | Day Type | Exercise | Set | ... | Notes
	LayoutSetLog
)

func (l Layout) String() string {
	if l == LayoutSetLog {
		return "set-log"
	}
	return "standard"
}

// StandardHeader is written by stores that create their own table
var StandardHeader = []string{"date", "category", "description", "notes", "output"}

const planDayType = "AI Plan"

// column aliases for the standard layout; the first name is canonical
var aliases = map[string]string{
	"type":      "category",
	"workout":   "description",
	"ai_output": "output",
}

// Header is a parsed header row
type Header struct {
	Layout Layout
	index  map[string]int
	width  int
}

// ParseHeader builds a column index from the first row of a tab.
func ParseHeader(header []string) Header {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}

	h := Header{Layout: LayoutStandard, index: idx, width: len(header)}
	if h.has("date", "day type", "exercise", "set") {
		h.Layout = LayoutSetLog
		return h
	}

	for alias, canonical := range aliases {
		if pos, ok := idx[alias]; ok {
			if _, exists := idx[canonical]; !exists {
				idx[canonical] = pos
			}
		}
	}
	if len(header) == 0 {
		for i, name := range StandardHeader {
			idx[name] = i
		}
		h.width = len(StandardHeader)
	}
	return h
}

func (h Header) has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := h.index[k]; !ok {
			return false
		}
	}
	return true
}

func (h Header) cell(row []string, key string) string {
	pos, ok := h.index[key]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// Entry decodes a body row. The bool reports whether the row is a manually
// logged workout.
func (h Header) Entry(row []string) (Entry, bool) {
	if h.Layout == LayoutSetLog {
		return h.setLogEntry(row)
	}

	e := Entry{
		Date:        h.cell(row, "date"),
		Category:    Category(h.cell(row, "category")),
		Description: h.cell(row, "description"),
		Notes:       h.cell(row, "notes"),
		Output:      h.cell(row, "output"),
	}
	return e, e.Category == CategoryWorkoutLog
}

func (h Header) setLogEntry(row []string) (Entry, bool) {
	dayType := h.cell(row, "day type")
	exercise := h.cell(row, "exercise")

	e := Entry{Date: h.cell(row, "date"), Category: CategoryWorkoutLog}
	if isPlanDayType(dayType) {
		e.Category = CategoryPlan
		e.Output = h.cell(row, "notes")
		return e, false
	}
	if dayType == "" || exercise == "" {
		return e, false
	}

	e.Description = dayType + ": " + exercise
	if set := h.cell(row, "set"); set != "" {
		e.Description += " (set " + set + ")"
	}

	var notes []string
	if week := h.cell(row, "week"); week != "" {
		notes = append(notes, "week "+week)
	}
	if n := h.cell(row, "notes"); n != "" {
		notes = append(notes, n)
	}
	e.Notes = strings.Join(notes, " | ")
	return e, true
}

func isPlanDayType(s string) bool {
	switch strings.ToLower(s) {
	case "ai plan", "ai_plan":
		return true
	}
	return false
}

// PlanRow builds the row the Writer appends for generated text.
func (h Header) PlanRow(date, text string) []string {
	row := make([]string, h.width)
	set := func(key, value string) bool {
		pos, ok := h.index[key]
		if !ok {
			return false
		}
		if pos >= len(row) {
			grown := make([]string, pos+1)
			copy(grown, row)
			row = grown
		}
		row[pos] = value
		return true
	}

	if h.Layout == LayoutSetLog {
		set("date", date)
		set("day type", planDayType)
		set("exercise", "Next Workout")
		if !set("notes", text) {
			set("set", text)
		}
		return row
	}

	set("date", date)
	set("category", string(CategoryPlan))
	if !set("output", text) {
		row = append(row, text)
	}
	return row
}

// Recent returns the last n manually logged workouts from values, whose
// first row is the header. Order is preserved.
func Recent(values [][]string, n int) []Entry {
	if n <= 0 || len(values) == 0 {
		return nil
	}

	h := ParseHeader(values[0])
	var out []Entry
	for _, row := range values[1:] {
		if e, ok := h.Entry(row); ok {
			out = append(out, e)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
