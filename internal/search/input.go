package search

import (
	"framework-search/internal/models"
)

// Kind names a request shape the validator can produce.
type Kind int

const (
	KindName Kind = iota + 1
	KindNumber
	KindFull
	KindAdmin
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindNumber:
		return "number"
	case KindFull:
		return "full"
	case KindAdmin:
		return "admin"
	}
	return "unknown"
}

// Criteria is the validated search input. The set of implementations is
// closed: only this package can add one, and only the Validator creates them.
type Criteria interface {
	Kind() Kind
	criteria()
}

// NameCriteria asks for name suggestions.
type NameCriteria struct {
	Name string
}

// NumberCriteria asks for number suggestions.
type NumberCriteria struct {
	Number string
}

// FullCriteria is the consumer search.
type FullCriteria struct {
	QueryType            models.QueryType
	Value                string
	PreferenceFrameworks []string
	Filter               Filter
}

// AdminCriteria is the staff search. Every list is optional.
type AdminCriteria struct {
	Frameworks            []string
	IndustryCategoryTypes []string
	SubCategories         []string
	StartDate             *models.Date
	EndDate               *models.Date
}

func (NameCriteria) Kind() Kind   { return KindName }
func (NumberCriteria) Kind() Kind { return KindNumber }
func (FullCriteria) Kind() Kind   { return KindFull }
func (AdminCriteria) Kind() Kind  { return KindAdmin }

func (NameCriteria) criteria()   {}
func (NumberCriteria) criteria() {}
func (FullCriteria) criteria()   {}
func (AdminCriteria) criteria()  {}

// Filter narrows consumer results without affecting scoring.
type Filter struct {
	CPVCode              *int
	IndustryCategoryType string
	SubCategory          string
	StartDate            *models.Date
	EndDate              *models.Date
}

// Empty reports whether no filter field is set.
func (f Filter) Empty() bool {
	return f.CPVCode == nil && f.IndustryCategoryType == "" && f.SubCategory == "" &&
		f.StartDate == nil && f.EndDate == nil
}

// Pagination is a 1-based page and page size.
type Pagination struct {
	Page           int `json:"page"`
	ResultsPerPage int `json:"results_per_page"`
}

// From is the zero-based offset of the first hit on the page.
func (p Pagination) From() int {
	return (p.Page - 1) * p.ResultsPerPage
}

// Validated is a request that passed validation. Its fields are unexported so
// the zero value is the only instance code outside Validator can construct,
// and builders reject it.
type Validated struct {
	criteria Criteria
	page     Pagination
	user     models.User
}

func (v Validated) Criteria() Criteria {
	return v.criteria
}

func (v Validated) Page() Pagination {
	return v.page
}

func (v Validated) User() models.User {
	return v.user
}

// IsZero reports whether v was not produced by a Validator.
func (v Validated) IsZero() bool {
	return v.criteria == nil
}
