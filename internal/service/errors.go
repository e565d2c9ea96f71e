package service

import "errors"

var (
	// ErrUserExists is returned when registering with an email that is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for a bad email or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDrugNotFound is returned when removing a drug the user never registered.
	ErrDrugNotFound = errors.New("drug not found")
	// ErrNoRegisteredDrugs is returned by paths that need at least one registered drug.
	ErrNoRegisteredDrugs = errors.New("no registered drugs")
	// ErrLLMUnavailable marks failures of the hosted completion API, as opposed
	// to local retrieval or database errors.
	ErrLLMUnavailable = errors.New("llm unavailable")
)
