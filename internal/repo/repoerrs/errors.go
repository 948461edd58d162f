package repoerrs

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidFilter means a constraint value can never match, e.g. a malformed actor id.
	ErrInvalidFilter = errors.New("invalid filter value")
)
