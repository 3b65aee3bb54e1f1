// internal/models/query_types.go
package models

// QueryType selects how the consumer search interprets query.value.
type QueryType string

const (
	QueryTypeByName    QueryType = "by_name"
	QueryTypeByNumber  QueryType = "by_number"
	QueryTypeByValue   QueryType = "by_value"
	QueryTypeSearchAll QueryType = "search_all"
)

func (q QueryType) Valid() bool {
	switch q {
	case QueryTypeByName, QueryTypeByNumber, QueryTypeByValue, QueryTypeSearchAll:
		return true
	}
	return false
}
