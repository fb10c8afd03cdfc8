package sheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/briangreenhill/sheetcoach/internal/failure"
	"github.com/briangreenhill/sheetcoach/internal/workout"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS workouts (
	id          BIGSERIAL PRIMARY KEY,
	date        TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	output      TEXT NOT NULL DEFAULT ''
)`

// PostgresStore keeps the workout tab in a Postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and makes sure the table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db config: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, classifyPostgres(fmt.Errorf("init schema: %w", err))
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

func (p *PostgresStore) Values(ctx context.Context) ([][]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT date, category, description, notes, output FROM workouts ORDER BY id`)
	if err != nil {
		return nil, classifyPostgres(fmt.Errorf("query workouts: %w", err))
	}
	defer rows.Close()

	out := [][]string{append([]string(nil), workout.StandardHeader...)}
	for rows.Next() {
		r := make([]string, 5)
		if err := rows.Scan(&r[0], &r[1], &r[2], &r[3], &r[4]); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPostgres(err)
	}
	return out, nil
}

func (p *PostgresStore) Header(context.Context) ([]string, error) {
	return append([]string(nil), workout.StandardHeader...), nil
}

func (p *PostgresStore) Append(ctx context.Context, row []string) error {
	cols := padRow(row)
	_, err := p.pool.Exec(ctx,
		`INSERT INTO workouts (date, category, description, notes, output) VALUES ($1, $2, $3, $4, $5)`,
		cols[0], cols[1], cols[2], cols[3], cols[4],
	)
	if err != nil {
		return classifyPostgres(fmt.Errorf("insert workout: %w", err))
	}
	return nil
}

func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 28xxx: invalid authorization specification / invalid password
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "28" {
			return failure.Wrap(failure.ErrAuth, err)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || failure.IsTransport(err) {
		return failure.Wrap(failure.ErrConnectivity, err)
	}
	return err
}

var _ workout.Store = (*PostgresStore)(nil)
