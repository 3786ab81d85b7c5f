package types

import "github.com/m-mizutani/goerr/v2"

// UserID identifies a ClickUp workspace member. ClickUp returns numeric
// IDs; they are coerced to their decimal string form at the API boundary.
type UserID string

// Validate checks if the UserID is valid
func (x UserID) Validate() error {
	if x == "" {
		return goerr.New("user ID is empty")
	}
	return nil
}

func (x UserID) String() string {
	return string(x)
}
