package services

import "errors"

// Sentinel errors for the core operations. Handlers translate these into
// the machine-readable JSON error codes.
var (
	ErrNotFound       = errors.New("not_found")
	ErrForbidden      = errors.New("forbidden")
	ErrNotParticipant = errors.New("not_participant")
	ErrInvalidInvite  = errors.New("invalid_invite")
	ErrInvalidInput   = errors.New("invalid_data")
	ErrMissingFields  = errors.New("missing_fields")
	ErrJoiningClosed  = errors.New("joining_closed")
	ErrUserExists     = errors.New("user_exists")
)
