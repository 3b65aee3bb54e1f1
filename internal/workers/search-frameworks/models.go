package searchframeworks

import (
	"encoding/json"

	"framework-search/internal/search"
)

// Input is read from the job variables. Request carries the same body the
// HTTP search endpoints accept.
type Input struct {
	UserID  int64           `json:"userId"`
	IsStaff bool            `json:"isStaff"`
	Admin   bool            `json:"admin"`
	Request json.RawMessage `json:"request"`
}

type Output struct {
	Result *search.Page `json:"result"`
}
