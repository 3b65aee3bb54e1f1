package queries

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestRangeOf_OmitsNilBounds(t *testing.T) {
	assert.JSONEq(t, `{"range":{"value_number":{"gte":100}}}`,
		toJSON(t, RangeOf("value_number", Range{Gte: int64(100)})))
	assert.JSONEq(t, `{"range":{"start_date":{"gte":"2024-01-01","lte":"2024-01-01"}}}`,
		toJSON(t, RangeOf("start_date", Range{Gte: "2024-01-01", Lte: "2024-01-01"})))
	assert.JSONEq(t, `{"range":{"value_number":{}}}`, toJSON(t, RangeOf("value_number", Range{})))
}

func TestNestedAndBool(t *testing.T) {
	q := Should(Nested("cpvs", Match("cpvs.code", 72000000)), Term("sub_category", "Cloud"))
	assert.JSONEq(t, `{"bool":{"should":[
		{"nested":{"path":"cpvs","query":{"match":{"cpvs.code":72000000}}}},
		{"term":{"sub_category":"Cloud"}}
	]}}`, toJSON(t, q))

	assert.JSONEq(t, `{"bool":{"must":[]}}`, toJSON(t, Must()))
}

func TestTerms_NilSliceEncodesAsEmptyArray(t *testing.T) {
	var ids []int64
	assert.JSONEq(t, `{"terms":{"id":[]}}`, toJSON(t, Terms("id", ids)))
}

func TestBody_OmitsZeroFromAndEmptyPostFilter(t *testing.T) {
	body := Body{Query: MatchAll(), Size: 10}
	assert.JSONEq(t, `{"query":{"match_all":{}},"size":10}`, toJSON(t, body))

	body = Body{Query: MatchAll(), From: 20, Size: 10, PostFilter: Should(Term("industry_or_category", "Technology"))}
	assert.JSONEq(t, `{"query":{"match_all":{}},"from":20,"size":10,
		"post_filter":{"bool":{"should":[{"term":{"industry_or_category":"Technology"}}]}}}`, toJSON(t, body))
}

func TestBoolPrefix(t *testing.T) {
	assert.JSONEq(t, `{"multi_match":{"query":"g-clo","type":"bool_prefix","fields":["name.search_as_you_type"]}}`,
		toJSON(t, BoolPrefix("g-clo", "name.search_as_you_type")))
}
