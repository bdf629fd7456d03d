package models

import "errors"

// Error taxonomy shared by all layers. Callers wrap these with context and
// the HTTP layer matches them with errors.Is.
var (
	// ErrConflict is returned when an email or username is already taken.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned when login or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput covers wrong content types and missing session fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned for missing files or images.
	ErrNotFound = errors.New("not found")
	// ErrStorage is returned on disk I/O failures.
	ErrStorage = errors.New("storage error")
	// ErrUpstream is returned when the AI service fails.
	ErrUpstream = errors.New("upstream error")
)
