package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail indicates a unique email constraint was violated.
	// It is the storage-layer backstop for races between an existence
	// check and the subsequent insert.
	ErrDuplicateEmail = errors.New("repository: email already exists")
)
