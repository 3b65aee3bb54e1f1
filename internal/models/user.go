package models

// User is the caller identity taken from a verified bearer token.
type User struct {
	ID                int64 `json:"id"`
	IsStaff           bool  `json:"is_staff"`
	IsSurveyCompleted bool  `json:"is_survey_completed"`
}

// CanSearch reports whether the user may use the consumer search endpoints.
func (u User) CanSearch() bool {
	return u.IsStaff || u.IsSurveyCompleted
}
