// Package repository holds what every storage backend shares: the sentinel
// errors callers match on. Backends live in the subpackages.
package repository

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrNoteNotFound   = errors.New("note not found")
)
