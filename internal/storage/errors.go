package storage

import "errors"

var (
	ErrStoryNotFound = errors.New("story not found")
	ErrInvalidData   = errors.New("invalid data")
	ErrStorageInit   = errors.New("storage initialization failed")
	ErrFileOperation = errors.New("file operation failed")
)
