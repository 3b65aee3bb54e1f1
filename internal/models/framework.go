// internal/models/framework.go
package models

import "time"

type Framework struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Link               string    `json:"link"`
	SiteName           string    `json:"site_name"`
	Number             string    `json:"number"`
	LotNumber          string    `json:"lot_number"`
	Value              string    `json:"value"`
	ValueNumber        *int64    `json:"value_number"`
	StartDate          *Date     `json:"start_date"`
	EndDate            *Date     `json:"end_date"`
	ServiceType        string    `json:"service_type"`
	Description        string    `json:"description"`
	Logo               *string   `json:"logo"`
	IndustryOrCategory *string   `json:"industry_or_category"`
	SubCategory        *string   `json:"sub_category"`
	IsAvailable        bool      `json:"is_available"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FrameworkValue is a named value bucket mapped to an inclusive numeric
// range. Either bound may be open.
type FrameworkValue struct {
	ID           int64  `json:"id"`
	Value        string `json:"value"`
	MinimumValue *int64 `json:"minimum_value"`
	MaximumValue *int64 `json:"maximum_value"`
}

type Document struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

type Lot struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FrameworkDetail is the consumer-facing detail view.
type FrameworkDetail struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	LotNumber          string  `json:"lot_number"`
	IndustryOrCategory *string `json:"industry_or_category"`
	SubCategory        *string `json:"sub_category"`
	Description        string  `json:"description"`
	StartDate          *Date   `json:"start_date"`
	EndDate            *Date   `json:"end_date"`
}

// AdminFrameworkDetail is the admin detail view with related records and the
// resolved logo URL.
type AdminFrameworkDetail struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Number             string     `json:"number"`
	Value              string     `json:"value"`
	StartDate          *Date      `json:"start_date"`
	EndDate            *Date      `json:"end_date"`
	ServiceType        string     `json:"service_type"`
	Description        string     `json:"description"`
	Logo               string     `json:"logo"`
	IndustryOrCategory *string    `json:"industry_or_category"`
	SubCategory        *string    `json:"sub_category"`
	Cpvs               []int      `json:"cpvs"`
	Documents          []Document `json:"documents"`
	Lots               []Lot      `json:"lots"`
}

// IndexedFramework is the document stored in the search index.
type IndexedFramework struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Number             string     `json:"number"`
	Description        string     `json:"description"`
	ValueNumber        *int64     `json:"value_number,omitempty"`
	IndustryOrCategory *string    `json:"industry_or_category,omitempty"`
	SubCategory        *string    `json:"sub_category,omitempty"`
	StartDate          *Date      `json:"start_date,omitempty"`
	EndDate            *Date      `json:"end_date,omitempty"`
	Cpvs               []IndexCpv `json:"cpvs"`
}

type IndexCpv struct {
	Code int `json:"code"`
}
