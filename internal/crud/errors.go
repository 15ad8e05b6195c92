package crud

import (
	"errors"
	"fmt"
)

// Precondition errors returned by controller operations.
var (
	ErrNotPermitted = errors.New("operation not permitted")
	ErrDialogOpen   = errors.New("edit dialog already open")
	ErrNoDialog     = errors.New("no edit dialog open")
	ErrNoConfirmer  = errors.New("no delete confirmer configured")
)

// LimitExceededError is returned by a service when persisting would exceed
// the entity's configured row limit.
type LimitExceededError struct {
	Entity string
	Limit  int
}

// Error implements the error interface.
func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("persistence limit exceeded for %s (max %d)", e.Entity, e.Limit)
}

// IsLimitExceeded reports whether err is a persistence limit error.
// Uses errors.As to handle wrapped errors.
func IsLimitExceeded(err error) bool {
	var le *LimitExceededError
	return errors.As(err, &le)
}
