package domain

import "errors"

// Storage-level errors. Repositories wrap them with %w, usecases map them
// onto API errors.
var (
	ErrEmptyFilter       = errors.New("refusing to run without a filter")
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
	ErrNoFields          = errors.New("no fields to write")
	ErrDuplicate         = errors.New("duplicate key")

	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidLineStatus  = errors.New("unknown line status")
	ErrInvalidStationName = errors.New("invalid station name")

	ErrOperatorNotFound  = errors.New("operator not found")
	ErrLineNotFound      = errors.New("line not found")
	ErrRequestNotFound   = errors.New("operator request not found")
	ErrInvalidTransition = errors.New("operator request is no longer pending")

	ErrDiscordNotConfigured = errors.New("discord bot token is not configured")
	ErrDiscordUserNotFound  = errors.New("discord user not found")
)
