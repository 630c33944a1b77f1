package ids

import "github.com/segmentio/ksuid"

// New returns a new sortable opaque identifier.
func New() string {
	return ksuid.New().String()
}
