package services

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown, inactive or wrong-password login
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserExists is returned when a username or email is already taken
	ErrUserExists = errors.New("username or email already exists")

	// ErrInvalidRole is returned for an unknown role id
	ErrInvalidRole = errors.New("invalid role selected")

	ErrUserNotFound = errors.New("user not found")

	ErrIncidentNotFound = errors.New("incident not found")
	ErrAlertNotFound    = errors.New("alert not found")
)
