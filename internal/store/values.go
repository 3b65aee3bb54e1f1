package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"framework-search/internal/models"
)

// GetFrameworkValue looks a bucket up by its display value.
func (s *Store) GetFrameworkValue(ctx context.Context, value string) (*models.FrameworkValue, error) {
	var (
		fv     models.FrameworkValue
		lo, hi sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, value, minimum_value, maximum_value FROM framework_values WHERE value = $1`, value,
	).Scan(&fv.ID, &fv.Value, &lo, &hi)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get framework value: %w", err)
	}
	fv.MinimumValue = nullInt64Ptr(lo)
	fv.MaximumValue = nullInt64Ptr(hi)
	return &fv, nil
}

func (s *Store) FrameworkValueExists(ctx context.Context, value string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM framework_values WHERE value = $1)`, value).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("framework value exists: %w", err)
	}
	return exists, nil
}

// ListFrameworkValues returns every bucket's display value.
func (s *Store) ListFrameworkValues(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `SELECT value FROM framework_values ORDER BY id`)
}

func (s *Store) listStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
