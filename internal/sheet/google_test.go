package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/briangreenhill/sheetcoach/internal/failure"
)

// fakeSheets emulates the two Sheets v4 value endpoints we call
type fakeSheets struct {
	mu       sync.Mutex
	rows     [][]interface{}
	status   int
	appended [][]interface{}
	ranges   []string
	options  []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"denied"}}`, f.status)
		return
	}

	path := r.URL.Path
	i := strings.Index(path, "/values/")
	if !strings.HasPrefix(path, "/v4/spreadsheets/sheet-1/") || i < 0 {
		http.NotFound(w, r)
		return
	}
	rng := path[i+len("/values/"):]

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":append"):
		var body sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.ranges = append(f.ranges, strings.TrimSuffix(rng, ":append"))
		f.options = append(f.options, r.URL.Query().Get("valueInputOption")+"/"+r.URL.Query().Get("insertDataOption"))
		f.appended = append(f.appended, body.Values...)
		f.rows = append(f.rows, body.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodGet:
		f.ranges = append(f.ranges, rng)
		values := f.rows
		if strings.Contains(rng, "A1:") && len(values) > 0 {
			values = values[:1]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "majorDimension": "ROWS", "values": values})
	default:
		http.Error(w, "unexpected", http.StatusMethodNotAllowed)
	}
}

func newTestGoogleStore(t *testing.T, fake *fakeSheets, tab string) *GoogleStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewGoogleStoreWithService(svc, "sheet-1", tab)
}

func TestGoogleStoreValuesAndHeader(t *testing.T) {
	fake := &fakeSheets{rows: [][]interface{}{
		{"date", "type", "workout", "notes", "ai_output"},
		{"2026-10-01", "workout_log", "squat", 5},
	}}
	store := newTestGoogleStore(t, fake, "Workouts")
	ctx := context.Background()

	values, err := store.Values(ctx)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, []string{"2026-10-01", "workout_log", "squat", "5"}, values[1])

	header, err := store.Header(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ai_output", header[4])

	assert.Equal(t, []string{"Workouts!A:Z", "Workouts!A1:Z1"}, fake.ranges)
}

func TestGoogleStoreAppend(t *testing.T) {
	fake := &fakeSheets{}
	store := newTestGoogleStore(t, fake, "My Log")

	err := store.Append(context.Background(), []string{"2026-10-17", "ai_plan", "", "", "legs"})
	require.NoError(t, err)

	require.Len(t, fake.appended, 1)
	assert.Equal(t, "legs", fake.appended[0][4])
	assert.Equal(t, []string{"'My Log'!A:E"}, fake.ranges)
	assert.Equal(t, []string{"RAW/INSERT_ROWS"}, fake.options)
}

func TestGoogleStoreAuthFailure(t *testing.T) {
	fake := &fakeSheets{status: http.StatusUnauthorized}
	store := newTestGoogleStore(t, fake, "Workouts")

	_, err := store.Values(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrAuth)
}

func TestGoogleStoreUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(url+"/"),
		option.WithHTTPClient(http.DefaultClient),
	)
	require.NoError(t, err)
	store := NewGoogleStoreWithService(svc, "sheet-1", "Workouts")

	_, err = store.Values(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrConnectivity)
}

func TestNewGoogleStoreRejectsBadKey(t *testing.T) {
	_, err := NewGoogleStore(context.Background(), ServiceAccount{}, "id", "tab")
	assert.ErrorIs(t, err, failure.ErrAuth)

	_, err = NewGoogleStore(context.Background(), ServiceAccount{Email: "a@b", PrivateKey: "not a key"}, "id", "tab")
	assert.ErrorIs(t, err, failure.ErrAuth)
}

func TestA1Helpers(t *testing.T) {
	assert.Equal(t, "Workouts!A:Z", a1Range("Workouts", "A", "Z"))
	assert.Equal(t, "'Week 1'!A1:Z1", a1Range("Week 1", "A1", "Z1"))
	assert.Equal(t, "'Bob''s'!A:E", a1Range("Bob's", "A", "E"))

	assert.Equal(t, "A", columnName(1))
	assert.Equal(t, "E", columnName(5))
	assert.Equal(t, "Z", columnName(26))
	assert.Equal(t, "AA", columnName(27))
	assert.Equal(t, "A", columnName(0))
}
