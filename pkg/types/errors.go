package types

import (
	"errors"
	"fmt"
)

// ErrNoRepositories indicates that no Helm chart repositories are configured.
var ErrNoRepositories = errors.New("no helm repositories configured")

// ErrInvalidArguments is returned when a tool call is missing required arguments.
var ErrInvalidArguments = errors.New("invalid arguments")

// CollectionError reports that a boundary collaborator could not list its
// resources at all. It is terminal for the analysis call that triggered it.
type CollectionError struct {
	Source string
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("failed to collect %s: %v", e.Source, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}
