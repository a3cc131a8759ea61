package contract

import "errors"

var (
	// Authentication outcomes.
	ErrIdentityMismatch = errors.New("identity fields do not match")
	ErrMalformedInput   = errors.New("input is malformed")
	ErrSessionLocked    = errors.New("session is locked out")

	// Credit decision outcomes. These are business rejections, not faults.
	ErrInvalidAmount     = errors.New("requested amount is invalid")
	ErrNoChange          = errors.New("requested amount equals current limit")
	ErrScoreInsufficient = errors.New("score does not allow requested limit")

	// Interview outcomes.
	ErrMalformedAnswer = errors.New("answer is malformed")

	// Infrastructure.
	ErrModelInvoke = errors.New("model invoke failed")
	ErrValidation  = errors.New("validation failed")
)
