package search

import (
	"context"
	"fmt"

	"framework-search/internal/search/queries"
)

// QueryStrategy builds the request for one validated shape and maps its
// response.
type QueryStrategy interface {
	Build(ctx context.Context) (queries.Body, error)
	Map(ctx context.Context, res *Response) ([]Item, error)
}

type suggestStrategy struct {
	field string
	text  string
	size  int
	mapFn func(*Response) []Item
}

func (s suggestStrategy) Build(context.Context) (queries.Body, error) {
	return buildSuggestion(s.field, s.text, s.size), nil
}

func (s suggestStrategy) Map(_ context.Context, res *Response) ([]Item, error) {
	return s.mapFn(res), nil
}

type consumerStrategy struct {
	lookup   Lookup
	mapper   *Mapper
	input    Validated
	criteria FullCriteria
}

func (s consumerStrategy) Build(ctx context.Context) (queries.Body, error) {
	return buildFull(ctx, s.lookup, s.input.User(), s.criteria, s.input.Page())
}

func (s consumerStrategy) Map(ctx context.Context, res *Response) ([]Item, error) {
	return s.mapper.Consumer(ctx, res)
}

type adminStrategy struct {
	mapper   *Mapper
	input    Validated
	criteria AdminCriteria
}

func (s adminStrategy) Build(context.Context) (queries.Body, error) {
	return buildAdmin(s.criteria, s.input.Page()), nil
}

func (s adminStrategy) Map(ctx context.Context, res *Response) ([]Item, error) {
	return s.mapper.Admin(ctx, res)
}

// strategyFor selects the strategy for the validated shape.
func (d *Dispatcher) strategyFor(v Validated) (QueryStrategy, error) {
	switch c := v.Criteria().(type) {
	case NameCriteria:
		return suggestStrategy{field: "name", text: c.Name, size: d.suggestionsSize, mapFn: Names}, nil
	case NumberCriteria:
		return suggestStrategy{field: "number", text: c.Number, size: d.suggestionsSize, mapFn: Numbers}, nil
	case FullCriteria:
		return consumerStrategy{lookup: d.lookup, mapper: d.mapper, input: v, criteria: c}, nil
	case AdminCriteria:
		return adminStrategy{mapper: d.mapper, input: v, criteria: c}, nil
	case nil:
		return nil, fmt.Errorf("search: input was not validated")
	default:
		return nil, fmt.Errorf("search: no strategy for %T", c)
	}
}
