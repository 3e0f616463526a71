package politics

import "errors"

var (
	// ErrInsufficientCombatants is returned when fewer than two living
	// agents remain for a duel. The orchestrator treats it as season end.
	ErrInsufficientCombatants = errors.New("fewer than two living combatants")

	// ErrNotRuler is returned when a coup targets anyone but the ruler.
	ErrNotRuler = errors.New("coup target is not the current ruler")

	// ErrCoupAlreadyRaised is returned for a second coup against the same
	// ruler in one round.
	ErrCoupAlreadyRaised = errors.New("a coup against this ruler is already pending")

	// ErrAlreadyAllied is returned when a participant of a proposal is in
	// an alliance.
	ErrAlreadyAllied = errors.New("agent already belongs to an alliance")

	// ErrAllianceNotFound is returned for unknown or inactive alliances.
	ErrAllianceNotFound = errors.New("alliance not found")

	// ErrNotMember is returned when an agent acts on an alliance it does
	// not belong to.
	ErrNotMember = errors.New("agent is not an alliance member")
)
