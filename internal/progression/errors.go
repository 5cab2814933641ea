package progression

import (
	"errors"
	"fmt"
)

// InvalidEventError reports a malformed submission. It is returned before any
// state is computed.
type InvalidEventError struct {
	Field  string
	Reason string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid event: %s %s", e.Field, e.Reason)
}

// BadgeCatalogInconsistencyError marks a badge id that was reported as earned
// but is missing from the catalog the caller persists against.
type BadgeCatalogInconsistencyError struct {
	BadgeID string
}

func (e *BadgeCatalogInconsistencyError) Error() string {
	return fmt.Sprintf("badge %q is not in the catalog", e.BadgeID)
}

// IsInvalidEvent reports whether err is (or wraps) an InvalidEventError.
func IsInvalidEvent(err error) bool {
	var target *InvalidEventError
	return errors.As(err, &target)
}
