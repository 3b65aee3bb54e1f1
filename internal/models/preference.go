package models

import "time"

type Preference struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user"`
	FrameworkID int64     `json:"framework_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// PreferredFramework is one entry of a user's preference list.
type PreferredFramework struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
