// Package store implements the Data Store Gateway of spec.md §4.D: a thin
// layer over sqlx/lib/pq that adds batched writes with per-row fallback and
// transparent deadlock retry, grounded on the teacher's
// internal/persistence/postgres repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Gateway is the sole SQL access point used by Extractors and Savers.
type Gateway struct {
	db         *sqlx.DB
	batchSize  int
	maxRetries int
}

// New wraps an already-opened *sqlx.DB. batchSize is the default chunk size
// for ExecBatchFallback (spec.md §4.D default 100).
func New(db *sqlx.DB, batchSize int) *Gateway {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Gateway{db: db, batchSize: batchSize, maxRetries: 3}
}

// Query runs a read query and scans rows into dest (a pointer to a slice),
// via sqlx's struct/slice scanning.
func (g *Gateway) Query(ctx context.Context, dest interface{}, sqlText string, args ...interface{}) error {
	if err := g.db.SelectContext(ctx, dest, sqlText, args...); err != nil {
		return fmt.Errorf("store: query: %w", err)
	}
	return nil
}

// Exec runs a single parameterized write and returns affected rows.
func (g *Gateway) Exec(ctx context.Context, sqlText string, args ...interface{}) (int64, error) {
	res, err := g.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("store: exec: %w", err)
	}
	return res.RowsAffected()
}

// TxFunc is the body of a transactional scope passed to InTx.
type TxFunc func(tx *sqlx.Tx) error

// InTx opens a transaction, passes it to fn, commits on success, and rolls
// back on error or panic. Transactions reporting a deadlock or lock-wait
// timeout are retried up to 3 times with 0.5·2^k second backoff, per
// spec.md §4.D / §5.
func (g *Gateway) InTx(ctx context.Context, fn TxFunc) error {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(0.5*math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := g.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isDeadlock(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("store: transaction failed after %d deadlock retries: %w", g.maxRetries, lastErr)
}

func (g *Gateway) runTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}

// isDeadlock reports whether err is a Postgres deadlock_detected (40P01) or
// lock_not_available (55P03) error.
func isDeadlock(err error) bool {
	var pqErr *pq.Error
	if ok := asPQError(err, &pqErr); ok {
		switch pqErr.Code {
		case "40P01", "55P03":
			return true
		}
	}
	return false
}

func asPQError(err error, target **pq.Error) bool {
	for err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			*target = pqErr
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ExecBatchFallback chunks params into groups of gateway batch size and
// executes each chunk as a single multi-row statement built by buildBatch.
// If a chunk fails, it falls back to executing each row individually so the
// good rows are salvaged and the bad row is pinpointed (spec.md §4.D, §7).
//
// buildBatch receives one chunk and must return the multi-row SQL text and
// its flattened args. execOne receives a single row's args and performs the
// equivalent single-row insert.
func (g *Gateway) ExecBatchFallback(
	ctx context.Context,
	tx *sqlx.Tx,
	rows [][]interface{},
	buildBatch func(chunk [][]interface{}) (string, []interface{}),
	execOne func(ctx context.Context, tx *sqlx.Tx, row []interface{}) error,
) (affected int64, rowErrs []RowError, err error) {
	for start := 0; start < len(rows); start += g.batchSize {
		if err := ctx.Err(); err != nil {
			return affected, rowErrs, err
		}
		end := start + g.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		sqlText, args := buildBatch(chunk)
		res, execErr := tx.ExecContext(ctx, sqlText, args...)
		if execErr == nil {
			n, _ := res.RowsAffected()
			affected += n
			continue
		}

		// Batch failed: fall back to per-row execution within the same tx
		// to salvage good rows and isolate the bad one.
		for i, row := range chunk {
			if rowErr := execOne(ctx, tx, row); rowErr != nil {
				rowErrs = append(rowErrs, RowError{Index: start + i, Err: rowErr})
				continue
			}
			affected++
		}
	}
	return affected, rowErrs, nil
}

// RowError records a per-row failure surfaced by ExecBatchFallback.
type RowError struct {
	Index int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

// ErrNoRows re-exports sql.ErrNoRows so callers need not import database/sql.
var ErrNoRows = sql.ErrNoRows
