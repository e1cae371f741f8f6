package domain

import (
	"errors"
	"fmt"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var (
	// ErrNotFound indicates the referenced order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition signals an attempted status change the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancellable reports whether a customer may still cancel from s.
func (s Status) Cancellable() bool {
	return s == StatusPreparing || s == StatusOutForDelivery
}

// Transition validates a status change against the state machine:
//
//	preparing -> out_for_delivery -> delivered
//	preparing | out_for_delivery -> cancelled
//
// Terminal states never transition. All mutations must route through here.
func Transition(current, next Status) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	switch {
	case current == StatusPreparing && next == StatusOutForDelivery:
		return nil
	case current == StatusOutForDelivery && next == StatusDelivered:
		return nil
	case current.Cancellable() && next == StatusCancelled:
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
}
