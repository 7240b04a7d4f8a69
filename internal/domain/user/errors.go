package user

import "errors"

var (
	// ErrNotFound is returned by repositories when no user has the requested key.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by repositories when a write violates email uniqueness.
	ErrEmailTaken = errors.New("email already taken")
)
