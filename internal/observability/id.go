package observability

import "github.com/google/uuid"

// NewRunID generates a unique identifier for an engine run.
func NewRunID() string {
	return "run_" + uuid.New().String()
}
