package services

import "errors"

// Shared error kinds used across services and the HTTP mapping.
var (
	// Generic not-found.
	ErrNotFound = errors.New("requested resource not found")

	// Engine error kinds.
	ErrInvalidRoster     = errors.New("roster cannot be paired: too few approved active participants")
	ErrInfeasiblePairing = errors.New("no valid full pairing exists")
	ErrInvalidTransition = errors.New("state machine precondition not met")
	ErrConflict          = errors.New("concurrent modification detected, retry with fresh state")
	ErrDisputed          = errors.New("conflicting score reports, organizer override required")
	ErrRitualPending     = errors.New("a ritual session must resolve before pairing can proceed")

	// Validation and business rules.
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrEventNameRequired     = errors.New("event name is required")
	ErrEventFormatInvalid    = errors.New("invalid event format")
	ErrEventPhaseFinal       = errors.New("event is already finished")
	ErrEventNotActive        = errors.New("event is not in the active phase")
	ErrRegistrationClosed    = errors.New("event registration is not open")
	ErrRoundLimitReached     = errors.New("event round schedule is exhausted")
	ErrPreviousRoundOpen     = errors.New("previous round is not complete")
	ErrNotGameParticipant    = errors.New("user does not play in this game")
	ErrReporterCannotConfirm = errors.New("the reporter cannot confirm their own result")
	ErrRitualNotContender    = errors.New("user is not a contender in this ritual")
	ErrRitualAlreadyRolled   = errors.New("contender has already rolled this round")
	ErrOverrideReasonNeeded  = errors.New("an override requires a reason")

	// Conflicts.
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
	ErrEventNameConflict    = errors.New("event name already exists")
	ErrRegistrationConflict = errors.New("participant is already registered for this event")

	// Authentication and authorization.
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific not-found variants.
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrRoundNotFound        = errors.New("round not found")
	ErrGameNotFound         = errors.New("game not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRitualNotFound       = errors.New("ritual session not found")
)
