package features

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/rs/zerolog"
)

const selectColumns = `token, open, high, low, close, volume, return_7d, rsi,
	macd, macd_signal, macd_diff, bb_mavg, bb_high, bb_low, bb_width`

// Repository handles token feature database operations
// Database: features.db (token_features table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new feature repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "features").Logger(),
	}
}

// Get returns the stored vector for token
func (r *Repository) Get(ctx context.Context, token string) (Vector, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM token_features WHERE token = ?", token)

	v, err := scanVector(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Vector{}, &TokenError{Token: token}
	}
	if err != nil {
		return Vector{}, fmt.Errorf("failed to get features for %s: %w", token, err)
	}
	return v, nil
}

// List returns all stored vectors ordered by token
func (r *Repository) List(ctx context.Context) ([]Vector, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM token_features ORDER BY token")
	if err != nil {
		return nil, fmt.Errorf("failed to query token features: %w", err)
	}
	defer rows.Close()

	var out []Vector
	for rows.Next() {
		v, err := scanVector(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token features: %w", err)
		}
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating token features: %w", err)
	}

	return out, nil
}

// Upsert inserts or replaces the vector for v.Token
func (r *Repository) Upsert(ctx context.Context, v Vector) error {
	if v.Token == "" {
		return fmt.Errorf("token is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO token_features (`+selectColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			return_7d = excluded.return_7d,
			rsi = excluded.rsi,
			macd = excluded.macd,
			macd_signal = excluded.macd_signal,
			macd_diff = excluded.macd_diff,
			bb_mavg = excluded.bb_mavg,
			bb_high = excluded.bb_high,
			bb_low = excluded.bb_low,
			bb_width = excluded.bb_width,
			updated_at = excluded.updated_at`,
		v.Token, v.Open, v.High, v.Low, v.Close, v.Volume, v.Return7d, v.RSI,
		v.MACD, v.MACDSignal, v.MACDDiff, v.BBMavg, v.BBHigh, v.BBLow, v.BBWidth,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert features for %s: %w", v.Token, err)
	}

	r.log.Debug().Str("token", v.Token).Msg("Stored token features")
	return nil
}

// Delete removes the vector for token
func (r *Repository) Delete(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM token_features WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("failed to delete features for %s: %w", token, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &TokenError{Token: token}
	}
	return nil
}

// SeedIfEmpty stores the given vectors when the table has no rows.
// Returns the number of vectors written.
func (r *Repository) SeedIfEmpty(ctx context.Context, vectors []Vector) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM token_features").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count token features: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().Unix()
		for _, v := range vectors {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO token_features (`+selectColumns+`, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				v.Token, v.Open, v.High, v.Low, v.Close, v.Volume, v.Return7d, v.RSI,
				v.MACD, v.MACDSignal, v.MACDDiff, v.BBMavg, v.BBHigh, v.BBLow, v.BBWidth,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", v.Token, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Info().Int("tokens", len(vectors)).Msg("Seeded token feature table")
	return len(vectors), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVector(s scanner) (Vector, error) {
	var v Vector
	err := s.Scan(
		&v.Token, &v.Open, &v.High, &v.Low, &v.Close, &v.Volume, &v.Return7d, &v.RSI,
		&v.MACD, &v.MACDSignal, &v.MACDDiff, &v.BBMavg, &v.BBHigh, &v.BBLow, &v.BBWidth,
	)
	return v, err
}
