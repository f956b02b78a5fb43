package order

import (
	"fmt"
	"slices"

	"ordersvc/internal/controller/apperror"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var AvailableStatuses = []Status{StatusPending, StatusPaid, StatusDelivered, StatusCancelled}

// NewStatus parses a raw status value, rejecting anything outside the enum.
func NewStatus(raw string) (Status, error) {
	if slices.Contains(AvailableStatuses, Status(raw)) {
		return Status(raw), nil
	}
	return "", fmt.Errorf("%w: %q", apperror.ErrInvalidStatus, raw)
}

// TransitionTable maps each status to the statuses it may move to.
// A transition to the same status is always allowed and treated as a no-op
// by the service layer.
type TransitionTable map[Status][]Status

// DefaultTransitions returns the transition graph used in production.
// DELIVERED and CANCELLED are terminal.
func DefaultTransitions() TransitionTable {
	return TransitionTable{
		StatusPending:   {StatusPaid, StatusDelivered, StatusCancelled},
		StatusPaid:      {StatusDelivered, StatusCancelled},
		StatusDelivered: {},
		StatusCancelled: {},
	}
}

// CanTransition reports whether from may move to to.
func (t TransitionTable) CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return slices.Contains(t[from], to)
}
