package storage

import "errors"

var (
	// ErrPersistenceFailure wraps any I/O or encoding failure while saving
	// or loading game state. Callers treat it as fatal to the season.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrSlotOutOfRange indicates a save slot outside the configured range.
	ErrSlotOutOfRange = errors.New("save slot out of range")

	// ErrEmptySlot indicates a load from a slot with no saved season.
	ErrEmptySlot = errors.New("save slot is empty")
)
