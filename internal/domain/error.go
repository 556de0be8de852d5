package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Scene generation errors
	ErrRateLimited   = errors.New("vendor rate limited the request")
	ErrExhausted     = errors.New("all generation attempts exhausted")
	ErrNoCredentials = errors.New("no vendor credentials configured")
	ErrNoScenes      = errors.New("no successful scenes to merge")
)
