package pipeline

import "github.com/oklog/ulid/v2"

// NewID returns a lexically sortable unique identifier for jobs and runs.
func NewID() string {
	return ulid.Make().String()
}
