package store

import (
	"context"
	"fmt"
	"time"

	"framework-search/internal/models"

	"github.com/lib/pq"
)

var eventTables = map[models.EventKind]string{
	models.EventSearch: "search_data",
	models.EventView:   "view_data",
}

// InsertEvents writes one analytics row per framework id.
func (s *Store) InsertEvents(ctx context.Context, kind models.EventKind, userID int64, frameworkIDs []int64, at time.Time) error {
	table, ok := eventTables[kind]
	if !ok {
		return fmt.Errorf("unknown event kind %q", kind)
	}
	if len(frameworkIDs) == 0 {
		return nil
	}

	// Rows whose framework was deleted since the search are skipped.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (framework_id, user_id, searched_date)
		SELECT f.id, $2, $3
		FROM unnest($1::bigint[]) AS ids(id)
		JOIN frameworks f ON f.id = ids.id`,
		pq.Array(frameworkIDs), userID, at)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// SearchVolume counts searches grouped by calendar month (1-12, all years
// together) or by year.
func (s *Store) SearchVolume(ctx context.Context, duration models.Duration) ([]models.VolumeBucket, error) {
	part := "YEAR"
	if duration == models.Monthly {
		part = "MONTH"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT EXTRACT(`+part+` FROM searched_date)::int AS grp, COUNT(id)
		FROM search_data
		GROUP BY grp
		ORDER BY grp`)
	if err != nil {
		return nil, fmt.Errorf("search volume: %w", err)
	}
	defer rows.Close()

	out := []models.VolumeBucket{}
	for rows.Next() {
		var b models.VolumeBucket
		if err := rows.Scan(&b.Group, &b.Volume); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// periodArgs returns the year and month filter for the window containing
// now. Month 0 disables the month filter.
func periodArgs(duration models.Duration, now time.Time) (int, int) {
	if duration == models.Monthly {
		return now.Year(), int(now.Month())
	}
	return now.Year(), 0
}

// TopFrameworks returns the three most searched framework names in the
// current month or year.
func (s *Store) TopFrameworks(ctx context.Context, duration models.Duration, now time.Time) ([]models.TopFramework, error) {
	year, month := periodArgs(duration, now)
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.name, COUNT(s.id) AS searches
		FROM search_data s
		JOIN frameworks f ON f.id = s.framework_id
		WHERE EXTRACT(YEAR FROM s.searched_date) = $1
		  AND ($2 = 0 OR EXTRACT(MONTH FROM s.searched_date) = $2)
		GROUP BY f.name
		ORDER BY searches DESC
		LIMIT 3`, year, month)
	if err != nil {
		return nil, fmt.Errorf("top frameworks: %w", err)
	}
	defer rows.Close()

	out := []models.TopFramework{}
	for rows.Next() {
		var t models.TopFramework
		if err := rows.Scan(&t.FrameworkName, &t.NumberOfSearches); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TopIndustries returns the three most searched industries in the current
// month or year.
func (s *Store) TopIndustries(ctx context.Context, duration models.Duration, now time.Time) ([]models.TopIndustry, error) {
	year, month := periodArgs(duration, now)
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.industry_or_category, COUNT(s.id) AS searches
		FROM search_data s
		JOIN frameworks f ON f.id = s.framework_id
		WHERE f.industry_or_category IS NOT NULL
		  AND EXTRACT(YEAR FROM s.searched_date) = $1
		  AND ($2 = 0 OR EXTRACT(MONTH FROM s.searched_date) = $2)
		GROUP BY f.industry_or_category
		ORDER BY searches DESC
		LIMIT 3`, year, month)
	if err != nil {
		return nil, fmt.Errorf("top industries: %w", err)
	}
	defer rows.Close()

	out := []models.TopIndustry{}
	for rows.Next() {
		var t models.TopIndustry
		if err := rows.Scan(&t.Industry, &t.NumberOfSearches); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
