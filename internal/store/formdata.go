package store

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// DistinctIndustries lists the non-empty industry_or_category values.
func (s *Store) DistinctIndustries(ctx context.Context) ([]string, error) {
	out, err := s.listStrings(ctx, `
		SELECT DISTINCT industry_or_category FROM frameworks
		WHERE industry_or_category IS NOT NULL AND industry_or_category <> ''
		ORDER BY industry_or_category`)
	if err != nil {
		return nil, fmt.Errorf("distinct industries: %w", err)
	}
	return out, nil
}

// DistinctSubCategories lists the non-null sub categories, restricted to the
// given industries when any are passed.
func (s *Store) DistinctSubCategories(ctx context.Context, industries []string) ([]string, error) {
	var (
		out []string
		err error
	)
	if len(industries) == 0 {
		out, err = s.listStrings(ctx, `
			SELECT DISTINCT sub_category FROM frameworks
			WHERE sub_category IS NOT NULL
			ORDER BY sub_category`)
	} else {
		out, err = s.listStrings(ctx, `
			SELECT DISTINCT sub_category FROM frameworks
			WHERE sub_category IS NOT NULL AND industry_or_category = ANY($1)
			ORDER BY sub_category`, pq.Array(industries))
	}
	if err != nil {
		return nil, fmt.Errorf("distinct sub categories: %w", err)
	}
	return out, nil
}

// MissingIndustries returns the entries of industries that no framework
// uses.
func (s *Store) MissingIndustries(ctx context.Context, industries []string) ([]string, error) {
	if len(industries) == 0 {
		return nil, nil
	}
	out, err := s.listStrings(ctx, `
		SELECT i FROM unnest($1::text[]) AS i
		WHERE NOT EXISTS (SELECT 1 FROM frameworks f WHERE f.industry_or_category = i)`,
		pq.Array(industries))
	if err != nil {
		return nil, fmt.Errorf("missing industries: %w", err)
	}
	return out, nil
}
