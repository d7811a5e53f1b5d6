package domain

// Status is the account status.
type Status string

// Account statuses. StatusActive is the initial one and StatusClosed is terminal.
const (
	StatusActive    Status = "active"
	StatusFrozen    Status = "frozen"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusFrozen, StatusSuspended, StatusClosed:
		return true
	}

	return false
}

// CanTransact reports whether an account in status s may originate or receive money.
func (s Status) CanTransact() bool {
	switch s {
	case StatusActive:
		return true
	case StatusFrozen, StatusSuspended, StatusClosed:
		return false
	}

	return false
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusActive:
		return next == StatusFrozen || next == StatusSuspended || next == StatusClosed
	case StatusFrozen:
		return next == StatusActive || next == StatusClosed
	case StatusSuspended:
		return next == StatusClosed
	case StatusClosed:
		return false
	}

	return false
}
