package uid

import "github.com/google/uuid"

// New generates a new random identifier for sync runs and requests.
func New() string {
	return uuid.NewString()
}

// IsValid reports whether id parses as a UUID.
func IsValid(id string) bool {
	return uuid.Validate(id) == nil
}
