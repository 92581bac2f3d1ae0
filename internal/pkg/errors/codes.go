package errors

import "net/http"

var (
	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)
)

// Lines
var (
	ErrLineNotFound = New(
		"LINE_NOT_FOUND",
		"Line not found",
		http.StatusNotFound,
	)

	ErrLineExists = New(
		"LINE_EXISTS",
		"A line with this name already exists",
		http.StatusBadRequest,
	)

	ErrInvalidLineType = New(
		"INVALID_LINE_TYPE",
		"Line type must be one of public, private, metro, tram, bus",
		http.StatusBadRequest,
	)

	ErrInvalidLineStatus = New(
		"INVALID_LINE_STATUS",
		"Unknown line status",
		http.StatusBadRequest,
	)

	ErrInvalidColor = New(
		"INVALID_COLOR",
		"Color must be a #rrggbb hex value",
		http.StatusBadRequest,
	)
)

// Operators
var (
	ErrOperatorNotFound = New(
		"OPERATOR_NOT_FOUND",
		"Operator not found",
		http.StatusNotFound,
	)

	ErrOperatorExists = New(
		"OPERATOR_EXISTS",
		"An operator with this uid already exists",
		http.StatusBadRequest,
	)
)

// Stations
var (
	ErrStationNotFound = New(
		"STATION_NOT_FOUND",
		"Station not found",
		http.StatusNotFound,
	)

	ErrStationExists = New(
		"STATION_EXISTS",
		"Another station already uses this name",
		http.StatusBadRequest,
	)

	ErrInvalidStationName = New(
		"INVALID_STATION_NAME",
		"Station name must be 1-255 characters and may not contain \"||\"",
		http.StatusBadRequest,
	)
)

// Operator requests
var (
	ErrRequestNotFound = New(
		"REQUEST_NOT_FOUND",
		"Operator request not found",
		http.StatusNotFound,
	)

	ErrInvalidRequestStatus = New(
		"INVALID_REQUEST_STATUS",
		"Status must be one of pending, accepted, rejected",
		http.StatusBadRequest,
	)

	ErrInvalidTransition = New(
		"INVALID_TRANSITION",
		"Request has already been handled",
		http.StatusConflict,
	)
)

// Auth & administration
var (
	ErrUnauthorized = New(
		"UNAUTHORIZED",
		"Login required",
		http.StatusUnauthorized,
	)

	ErrForbidden = New(
		"FORBIDDEN",
		"You are not allowed to modify this resource",
		http.StatusUnauthorized,
	)

	ErrAdminOnly = New(
		"ADMIN_ONLY",
		"Administrator access required",
		http.StatusForbidden,
	)

	ErrReadOnly = New(
		"READ_ONLY",
		"The site is in read-only mode",
		http.StatusForbidden,
	)

	ErrInvalidSettings = New(
		"INVALID_SETTINGS",
		"Invalid settings",
		http.StatusBadRequest,
	)

	ErrOAuthFailed = New(
		"OAUTH_FAILED",
		"Discord login failed",
		http.StatusBadGateway,
	)
)
