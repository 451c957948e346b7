// Package store keeps a history of backtest runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"grid-backtest/internal/backtest"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("run not found")

// Mode names how a run replayed its bars.
const (
	ModeSingle = "single"
	ModeRegrid = "regrid"
)

// Run is one stored backtest with its headline numbers. Payload carries the
// full JSON result as returned to the caller.
type Run struct {
	ID          string          `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	Symbol      string          `json:"symbol"`
	Interval    string          `json:"interval"`
	Mode        string          `json:"mode"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Config      backtest.Config `json:"config"`
	Sessions    int             `json:"sessions"`
	Breakouts   int             `json:"breakouts"`
	CyclesLong  int             `json:"cycles_long"`
	CyclesShort int             `json:"cycles_short"`
	TotalPnl    float64         `json:"total_pnl"`
	Bars        int             `json:"bars"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	created_at   INTEGER NOT NULL,
	symbol       TEXT NOT NULL,
	interval     TEXT NOT NULL,
	mode         TEXT NOT NULL,
	start_ms     INTEGER NOT NULL,
	end_ms       INTEGER NOT NULL,
	config       TEXT NOT NULL,
	sessions     INTEGER NOT NULL,
	breakouts    INTEGER NOT NULL,
	cycles_long  INTEGER NOT NULL,
	cycles_short INTEGER NOT NULL,
	total_pnl    REAL NOT NULL,
	bars         INTEGER NOT NULL,
	payload      BLOB
)`
	const idx = `CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`
	for _, stmt := range []string{ddl, idx} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveRun inserts r, assigning ID and CreatedAt when they are empty.
func (s *Store) SaveRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, created_at, symbol, interval, mode, start_ms, end_ms, config,
	sessions, breakouts, cycles_long, cycles_short, total_pnl, bars, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UnixMilli(), r.Symbol, r.Interval, r.Mode,
		r.Start.UnixMilli(), r.End.UnixMilli(), string(cfg),
		r.Sessions, r.Breakouts, r.CyclesLong, r.CyclesShort, r.TotalPnl, r.Bars,
		[]byte(r.Payload),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRun = `
SELECT id, created_at, symbol, interval, mode, start_ms, end_ms, config,
	sessions, breakouts, cycles_long, cycles_short, total_pnl, bars, payload
FROM runs`

func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	r, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// ListRuns returns the most recent runs first, without payloads.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]*Run, 0)
	for rows.Next() {
		r, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, withPayload bool) (*Run, error) {
	var (
		r                       Run
		created, startMs, endMs int64
		cfg                     string
		payload                 []byte
	)
	err := sc.Scan(&r.ID, &created, &r.Symbol, &r.Interval, &r.Mode, &startMs, &endMs, &cfg,
		&r.Sessions, &r.Breakouts, &r.CyclesLong, &r.CyclesShort, &r.TotalPnl, &r.Bars, &payload)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	r.Start = time.UnixMilli(startMs).UTC()
	r.End = time.UnixMilli(endMs).UTC()
	if err := json.Unmarshal([]byte(cfg), &r.Config); err != nil {
		return nil, fmt.Errorf("decode config of run %s: %w", r.ID, err)
	}
	if withPayload && len(payload) > 0 {
		r.Payload = json.RawMessage(payload)
	}
	return &r, nil
}
