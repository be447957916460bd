// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as handlers
// to distinguish expected outcomes from storage failures; any other error
// returned by a repository is a persistence failure.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert collides with the unique email
// key, including the race where two registrations pass the existence check.
var ErrEmailExists = errors.New("email already exists")
