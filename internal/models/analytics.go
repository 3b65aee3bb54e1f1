package models

import "time"

// EventKind distinguishes search and view analytics records.
type EventKind string

const (
	EventSearch EventKind = "search"
	EventView   EventKind = "view"
)

type SearchEvent struct {
	Kind         EventKind `json:"kind"`
	UserID       int64     `json:"user_id"`
	FrameworkIDs []int64   `json:"framework_ids"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Duration is the reporting window of the admin analytics endpoints.
type Duration string

const (
	Monthly Duration = "monthly"
	Yearly  Duration = "yearly"
)

type VolumeBucket struct {
	Group  int   `json:"-"`
	Volume int64 `json:"volume"`
}

type TopFramework struct {
	FrameworkName    string `json:"framework_name"`
	NumberOfSearches int64  `json:"number_of_searches"`
}

type TopIndustry struct {
	Industry         string `json:"industry"`
	NumberOfSearches int64  `json:"number_of_searches"`
}
