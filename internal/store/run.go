package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/naming"
)

// RunStore persists simulation runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore wraps an open database.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Create records a new run with a fresh identifier.
func (s *RunStore) Create(ctx context.Context, year int, reformKey string, households int) (*model.Run, error) {
	run := &model.Run{
		ID:         naming.NewRunID(),
		Year:       year,
		ReformKey:  reformKey,
		Households: households,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, year, reform_key, households, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Year, run.ReformKey, run.Households, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// AddDeciles stores decile aggregates of a run in one transaction.
func (s *RunStore) AddDeciles(ctx context.Context, runID string, rows []model.DecileRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_deciles (run_id, decile, variable, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare decile insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		for name, v := range row.Values {
			if _, err := stmt.ExecContext(ctx, runID, row.Decile, name, v); err != nil {
				return fmt.Errorf("add decile %d %s: %w", row.Decile, name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deciles: %w", err)
	}
	return nil
}

// Get returns a run by id, or nil when it does not exist.
func (s *RunStore) Get(ctx context.Context, id string) (*model.Run, error) {
	r := &model.Run{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, year, reform_key, households, created_at FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Year, &r.ReformKey, &r.Households, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// List returns the most recent runs first.
func (s *RunStore) List(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, year, reform_key, households, created_at FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		if err := rows.Scan(&r.ID, &r.Year, &r.ReformKey, &r.Households, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Deciles returns the decile aggregates of a run ordered by decile.
func (s *RunStore) Deciles(ctx context.Context, runID string) ([]model.DecileRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT decile, variable, value FROM run_deciles WHERE run_id = ?`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list deciles: %w", err)
	}
	defer rows.Close()

	byDecile := make(map[int]map[string]float64)
	for rows.Next() {
		var (
			decile int
			name   string
			value  float64
		)
		if err := rows.Scan(&decile, &name, &value); err != nil {
			return nil, fmt.Errorf("scan decile: %w", err)
		}
		if byDecile[decile] == nil {
			byDecile[decile] = make(map[string]float64)
		}
		byDecile[decile][name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.DecileRow, 0, len(byDecile))
	for d, values := range byDecile {
		out = append(out, model.DecileRow{Decile: d, Values: values})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decile < out[j].Decile })
	return out, nil
}
