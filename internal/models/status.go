package models

import (
	"fmt"
	"slices"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus returns the Status named by s and whether it is known.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return st, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AllowedTransitions returns the statuses reachable from s. An unknown
// status yields ok == false.
func AllowedTransitions(s Status) (next []Status, ok bool) {
	switch s {
	case StatusPending:
		return []Status{StatusApproved, StatusCancelled}, true
	case StatusApproved:
		return []Status{StatusCompleted, StatusCancelled}, true
	case StatusCompleted, StatusCancelled:
		return nil, true
	}
	return nil, false
}

// Transition checks that moving from one status to another is allowed.
func Transition(from, to Status) error {
	next, ok := AllowedTransitions(from)
	if !ok {
		return &InvalidStateError{State: from}
	}
	if !slices.Contains(next, to) {
		return &IllegalTransitionError{From: from, To: to}
	}
	return nil
}

type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	if e.From.Terminal() {
		return fmt.Sprintf("illegal status transition: %s is terminal (requested %s)", e.From, e.To)
	}
	return fmt.Sprintf("illegal status transition: %s -> %s", e.From, e.To)
}

type InvalidStateError struct {
	State Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid trade-in state %q", string(e.State))
}
