// Package queries holds the Elasticsearch query DSL fragments used by the
// search builders. Every helper returns a plain map so the request body
// marshals exactly as written.
package queries

// Clause is one node of the query DSL.
type Clause map[string]interface{}

// Body is a complete _search request body.
type Body struct {
	Query      Clause `json:"query"`
	PostFilter Clause `json:"post_filter,omitempty"`
	From       int    `json:"from,omitempty"`
	Size       int    `json:"size"`
}

// Range bounds; nil bounds are left out of the clause.
type Range struct {
	Gte interface{}
	Lte interface{}
}

func MatchAll() Clause {
	return Clause{"match_all": map[string]interface{}{}}
}

func Match(field string, value interface{}) Clause {
	return Clause{"match": map[string]interface{}{field: value}}
}

func MatchPhrase(field string, value string) Clause {
	return Clause{"match_phrase": map[string]interface{}{field: value}}
}

func MultiMatch(query string, fields ...string) Clause {
	return Clause{"multi_match": map[string]interface{}{
		"query":  query,
		"fields": fields,
	}}
}

// BoolPrefix is a search-as-you-type multi_match.
func BoolPrefix(query string, fields ...string) Clause {
	return Clause{"multi_match": map[string]interface{}{
		"query":  query,
		"type":   "bool_prefix",
		"fields": fields,
	}}
}

func Term(field string, value interface{}) Clause {
	return Clause{"term": map[string]interface{}{field: value}}
}

func Terms[T any](field string, values []T) Clause {
	if values == nil {
		values = []T{}
	}
	return Clause{"terms": map[string]interface{}{field: values}}
}

func RangeOf(field string, r Range) Clause {
	bounds := map[string]interface{}{}
	if r.Gte != nil {
		bounds["gte"] = r.Gte
	}
	if r.Lte != nil {
		bounds["lte"] = r.Lte
	}
	return Clause{"range": map[string]interface{}{field: bounds}}
}

func Nested(path string, query Clause) Clause {
	return Clause{"nested": map[string]interface{}{
		"path":  path,
		"query": query,
	}}
}

func Should(clauses ...Clause) Clause {
	return Clause{"bool": map[string]interface{}{"should": nonNil(clauses)}}
}

func Must(clauses ...Clause) Clause {
	return Clause{"bool": map[string]interface{}{"must": nonNil(clauses)}}
}

func nonNil(clauses []Clause) []Clause {
	if clauses == nil {
		return []Clause{}
	}
	return clauses
}
