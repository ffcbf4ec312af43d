package store

import "fmt"

// NotFoundError reports a lookup miss in one of the collections. Surfaced to
// the routing layer as a not-found outcome, never retried.
type NotFoundError struct {
	Kind string // "unit", "employee" or "schema"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found matching %q", e.Kind, e.Key)
}
