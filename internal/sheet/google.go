package sheet

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/briangreenhill/sheetcoach/internal/failure"
	"github.com/briangreenhill/sheetcoach/internal/workout"
)

const (
	googleTokenURL = "https://oauth2.googleapis.com/token"
	lastColumn     = "Z"
)

// ServiceAccount holds the credentials of a Google service account
type ServiceAccount struct {
	Email      string
	PrivateKey string
}

// GoogleStore reads and appends rows of one tab in a Google spreadsheet.
type GoogleStore struct {
	svc     *sheets.Service
	sheetID string
	tab     string
}

// NewGoogleStore authenticates with the service account and returns a store
// for the given spreadsheet tab.
func NewGoogleStore(ctx context.Context, acct ServiceAccount, sheetID, tab string, opts ...option.ClientOption) (*GoogleStore, error) {
	if acct.Email == "" || acct.PrivateKey == "" {
		return nil, fmt.Errorf("%w: service account email and private key required", failure.ErrAuth)
	}
	if block, _ := pem.Decode([]byte(acct.PrivateKey)); block == nil {
		return nil, fmt.Errorf("%w: private key is not PEM encoded", failure.ErrAuth)
	}

	conf := &jwt.Config{
		Email:      acct.Email,
		PrivateKey: []byte(acct.PrivateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   googleTokenURL,
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(conf.Client(ctx))}, opts...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewGoogleStoreWithService(svc, sheetID, tab), nil
}

// NewGoogleStoreWithService wraps an already configured Sheets service.
func NewGoogleStoreWithService(svc *sheets.Service, sheetID, tab string) *GoogleStore {
	return &GoogleStore{svc: svc, sheetID: sheetID, tab: tab}
}

func (g *GoogleStore) Values(ctx context.Context) ([][]string, error) {
	return g.get(ctx, a1Range(g.tab, "A", lastColumn))
}

func (g *GoogleStore) Header(ctx context.Context) ([]string, error) {
	rows, err := g.get(ctx, a1Range(g.tab, "A1", lastColumn+"1"))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (g *GoogleStore) Append(ctx context.Context, row []string) error {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{cells}}

	_, err := g.svc.Spreadsheets.Values.
		Append(g.sheetID, a1Range(g.tab, "A", columnName(len(row))), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classifyGoogle(fmt.Errorf("append to %s: %w", g.tab, err))
	}
	return nil
}

func (g *GoogleStore) get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.sheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classifyGoogle(fmt.Errorf("get %s: %w", rng, err))
	}

	out := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		row := make([]string, len(r))
		for j, v := range r {
			switch s := v.(type) {
			case string:
				row[j] = s
			case nil:
			default:
				row[j] = fmt.Sprint(s)
			}
		}
		out[i] = row
	}
	return out, nil
}

func classifyGoogle(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if sentinel := failure.FromStatus(gerr.Code); sentinel != nil {
			return failure.Wrap(sentinel, err)
		}
		return err
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return failure.Wrap(failure.ErrAuth, err)
	}
	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &synErr) || errors.As(err, &typeErr) {
		return failure.Wrap(failure.ErrMalformed, err)
	}
	if failure.IsTransport(err) {
		return failure.Wrap(failure.ErrConnectivity, err)
	}
	return err
}

// a1Range builds "Tab!from:to", quoting the tab name when A1 notation needs it.
func a1Range(tab, from, to string) string {
	return quoteTab(tab) + "!" + from + ":" + to
}

func quoteTab(tab string) string {
	plain := tab != ""
	for _, r := range tab {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			plain = false
			break
		}
	}
	if plain {
		return tab
	}
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// columnName returns the A1 letter(s) for a 1-based column count.
func columnName(n int) string {
	if n < 1 {
		n = 1
	}
	var name []byte
	for n > 0 {
		n--
		name = append([]byte{byte('A' + n%26)}, name...)
		n /= 26
	}
	return string(name)
}

var _ workout.Store = (*GoogleStore)(nil)
