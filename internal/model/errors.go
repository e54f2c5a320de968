package model

import "errors"

// ErrorKind classifies why a submission ended without a stored story.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindGeneration ErrorKind = "generation"
	KindStorage    ErrorKind = "storage"
)

// ValidationError means the input was rejected before any generation call.
type ValidationError struct {
	Reason string
	Err    error
}

func NewValidationError(reason string, err error) *ValidationError {
	return &ValidationError{Reason: reason, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Kind() ErrorKind { return KindValidation }

// GenerationError means the provider timed out, failed, or answered with
// something unusable. Nothing was stored.
type GenerationError struct {
	Reason string
	Err    error
}

func NewGenerationError(reason string, err error) *GenerationError {
	return &GenerationError{Reason: reason, Err: err}
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return "generation failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "generation failed: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Kind() ErrorKind { return KindGeneration }

// StorageError means a generated story could not be persisted. The text is
// not retrievable afterwards.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + " failed: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Kind() ErrorKind { return KindStorage }

// KindOf reports the taxonomy kind of err, or "" for errors outside it.
func KindOf(err error) ErrorKind {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// PublicMessage is the text shown to users for err. Provider and storage
// causes stay in the logs.
func PublicMessage(err error) string {
	var genErr *GenerationError
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &genErr):
		return "generation failed: " + genErr.Reason
	case KindOf(err) == KindStorage:
		return "the story could not be saved"
	}
	return "internal error"
}
