package studio

import (
	"fmt"
)

// ValidationError rejects an operation before any external call is made.
type ValidationError struct {
	Message       string
	LoginRequired bool
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GenerationError wraps an image service failure.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps an album store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

var (
	errLoginRequired  = &ValidationError{Message: "login required", LoginRequired: true}
	errSaveLogin      = &ValidationError{Message: "login required to save", LoginRequired: true}
	errNeedCredential = &ValidationError{Message: "a Gemini API key is required"}
	errNoSubjects     = &ValidationError{Message: "upload bride and groom photos first"}
	errBusy           = &ValidationError{Message: "a generation is already running"}
	errBatchRunning   = &ValidationError{Message: "wait for the batch to finish"}
	errEmptyRetouch   = &ValidationError{Message: "retouch instruction is empty"}
	errEmptyKey       = &ValidationError{Message: "API key must not be empty"}
	errNoBatchResult  = &ValidationError{Message: "no such batch result"}
)
