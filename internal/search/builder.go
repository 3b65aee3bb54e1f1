package search

import (
	"context"
	"errors"
	"strconv"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/models"
	"framework-search/internal/search/queries"
	"framework-search/internal/store"
)

var (
	// ErrEmptyQuery means the criteria produced no searchable clause.
	ErrEmptyQuery = errors.New("search: empty query")
	// ErrNotFound means a record named by the criteria disappeared after
	// validation.
	ErrNotFound = errors.New("search: referenced record not found")
)

// searchAllFields are the text fields matched by search_all.
var searchAllFields = []string{"name", "description", "number.raw"}

// buildFull translates consumer criteria into a _search body.
func buildFull(ctx context.Context, lookup Lookup, user models.User, c FullCriteria, page Pagination) (queries.Body, error) {
	clauses, err := fullClauses(ctx, lookup, user, c)
	if err != nil {
		return queries.Body{}, err
	}
	if len(clauses) == 0 {
		return queries.Body{}, ErrEmptyQuery
	}

	body := queries.Body{
		Query: queries.Should(clauses...),
		From:  page.From(),
		Size:  page.ResultsPerPage,
	}
	if filters := filterClauses(c.Filter); len(filters) > 0 {
		body.PostFilter = queries.Should(filters...)
	}
	return body, nil
}

func fullClauses(ctx context.Context, lookup Lookup, user models.User, c FullCriteria) ([]queries.Clause, error) {
	var clauses []queries.Clause

	switch c.QueryType {
	case models.QueryTypeByName:
		if c.Value != "" {
			clauses = append(clauses, queries.MatchPhrase("name", c.Value))
		}
	case models.QueryTypeByNumber:
		if c.Value != "" {
			clauses = append(clauses, queries.MatchPhrase("number", c.Value))
		}
	case models.QueryTypeByValue:
		if c.Value == "" {
			break
		}
		bucket, err := lookup.GetFrameworkValue(ctx, c.Value)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("get framework value", err)
		}
		clauses = append(clauses, queries.RangeOf("value_number", bucketRange(bucket)))
	case models.QueryTypeSearchAll:
		if c.Value != "" {
			fields := append([]string(nil), searchAllFields...)
			if isDigits(c.Value) {
				if n, err := strconv.ParseInt(c.Value, 10, 64); err == nil {
					clauses = append(clauses, queries.Match("value_number", n))
					fields = append(fields, "cpvs.code", "value_number")
				}
			}
			clauses = append(clauses, queries.MultiMatch(c.Value, fields...))
		}
		if len(c.PreferenceFrameworks) > 0 {
			ids, err := lookup.PreferredFrameworkIDs(ctx, user.ID, c.PreferenceFrameworks)
			if err != nil {
				return nil, apperrors.NewQueryExecutionFailedError("preferred framework ids", err)
			}
			clauses = append(clauses, queries.Terms("id", ids))
		}
	}
	return clauses, nil
}

func bucketRange(bucket *models.FrameworkValue) queries.Range {
	var r queries.Range
	if bucket.MinimumValue != nil {
		r.Gte = *bucket.MinimumValue
	}
	if bucket.MaximumValue != nil {
		r.Lte = *bucket.MaximumValue
	}
	return r
}

// filterClauses are OR-ed into post_filter so they do not affect scoring.
func filterClauses(f Filter) []queries.Clause {
	var clauses []queries.Clause
	if f.CPVCode != nil {
		clauses = append(clauses, queries.Nested("cpvs", queries.Match("cpvs.code", *f.CPVCode)))
	}
	if f.IndustryCategoryType != "" {
		clauses = append(clauses, queries.Term("industry_or_category", f.IndustryCategoryType))
	}
	if f.SubCategory != "" {
		clauses = append(clauses, queries.Term("sub_category", f.SubCategory))
	}
	if f.StartDate != nil {
		clauses = append(clauses, exactDay("start_date", *f.StartDate))
	}
	if f.EndDate != nil {
		clauses = append(clauses, exactDay("end_date", *f.EndDate))
	}
	return clauses
}

func exactDay(field string, d models.Date) queries.Clause {
	day := d.String()
	return queries.RangeOf(field, queries.Range{Gte: day, Lte: day})
}

// buildAdmin AND-s every supplied criterion. With none it matches the whole
// catalogue.
func buildAdmin(c AdminCriteria, page Pagination) queries.Body {
	var clauses []queries.Clause
	if len(c.Frameworks) > 0 {
		clauses = append(clauses, queries.Terms("name.raw", c.Frameworks))
	}
	if len(c.IndustryCategoryTypes) > 0 {
		clauses = append(clauses, queries.Terms("industry_or_category", c.IndustryCategoryTypes))
	}
	if len(c.SubCategories) > 0 {
		clauses = append(clauses, queries.Terms("sub_category", c.SubCategories))
	}
	if c.StartDate != nil && c.EndDate != nil {
		clauses = append(clauses,
			exactDay("start_date", *c.StartDate),
			exactDay("end_date", *c.EndDate),
		)
	}

	query := queries.MatchAll()
	if len(clauses) > 0 {
		query = queries.Must(clauses...)
	}
	return queries.Body{
		Query: query,
		From:  page.From(),
		Size:  page.ResultsPerPage,
	}
}

// buildSuggestion is a search-as-you-type lookup on one field.
func buildSuggestion(field, text string, size int) queries.Body {
	return queries.Body{
		Query: queries.BoolPrefix(text, field+".search_as_you_type"),
		Size:  size,
	}
}
