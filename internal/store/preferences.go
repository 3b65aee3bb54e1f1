package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"framework-search/internal/models"

	"github.com/lib/pq"
)

const pqForeignKeyViolation = "23503"

// ListPreferences returns the followed frameworks of a user, oldest first.
func (s *Store) ListPreferences(ctx context.Context, userID int64) ([]models.PreferredFramework, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.name
		FROM preferences p
		JOIN frameworks f ON f.id = p.framework_id
		WHERE p.user_id = $1
		ORDER BY p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	out := []models.PreferredFramework{}
	for rows.Next() {
		var p models.PreferredFramework
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PreferenceNames returns the names of the frameworks a user follows.
func (s *Store) PreferenceNames(ctx context.Context, userID int64) ([]string, error) {
	out, err := s.listStrings(ctx, `
		SELECT f.name
		FROM preferences p
		JOIN frameworks f ON f.id = p.framework_id
		WHERE p.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("preference names: %w", err)
	}
	return out, nil
}

// PreferredFrameworkIDs resolves framework names to ids, restricted to the
// frameworks the user follows.
func (s *Store) PreferredFrameworkIDs(ctx context.Context, userID int64, names []string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.framework_id
		FROM preferences p
		JOIN frameworks f ON f.id = p.framework_id
		WHERE p.user_id = $1 AND f.name = ANY($2)
		ORDER BY p.framework_id`, userID, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("preferred framework ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreatePreference returns ErrDuplicate when the user already follows the
// framework and ErrNotFound when the framework does not exist.
func (s *Store) CreatePreference(ctx context.Context, userID, frameworkID int64) (*models.Preference, error) {
	p := models.Preference{UserID: userID, FrameworkID: frameworkID}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO preferences (user_id, framework_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, framework_id) DO NOTHING
		RETURNING id, created_at`, userID, frameworkID).Scan(&p.ID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicate
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	return &p, nil
}

// DeletePreference returns ErrNotFound when nothing was deleted.
func (s *Store) DeletePreference(ctx context.Context, userID, frameworkID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE user_id = $1 AND framework_id = $2`, userID, frameworkID)
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
