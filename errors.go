package tradebook

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMethod is returned for a cost basis method other than FIFO or AVG.
	ErrUnknownMethod = errors.New("unknown cost basis method")
	// ErrUnknownResidency is returned when no tax schedule exists for a residency.
	ErrUnknownResidency = errors.New("unknown tax residency")
	// ErrUnknownTolerance is returned for an unknown risk tolerance.
	ErrUnknownTolerance = errors.New("unknown risk tolerance")
	// ErrMixedCurrency is returned when a ticker is traded in more than one currency.
	ErrMixedCurrency = errors.New("ticker traded in several currencies")
)

// Error is an upstream failure (file, network, storage) annotated with the operation that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// WrapError annotates err with op, it returns nil if err is nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
