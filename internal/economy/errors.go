package economy

import "errors"

var (
	// ErrInsufficientFunds is returned when an agent cannot cover a price.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCapacityExceeded is returned when the pool has no free CPU shares.
	ErrCapacityExceeded = errors.New("cpu capacity exceeded")

	// ErrOverRelease is returned when releasing more shares than allocated.
	ErrOverRelease = errors.New("release exceeds allocation")

	// ErrNoSlotAvailable is returned when every GPU slot is occupied.
	ErrNoSlotAvailable = errors.New("no gpu slot available")

	// ErrUnknownAgent is returned for ids missing from the roster.
	ErrUnknownAgent = errors.New("agent not found")

	// ErrAgentDead is returned when a purchase is attempted for an
	// eliminated agent.
	ErrAgentDead = errors.New("agent is not alive")

	// ErrNegativeAmount is returned for negative deposits or transfers.
	ErrNegativeAmount = errors.New("amount must be non-negative")
)
