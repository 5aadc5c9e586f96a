// Package repository holds the storage adapters of the service: the Redis
// backed feature-flag store and the MySQL seat inventory and click archive.
// Sentinel errors defined here let handlers tell failure kinds apart.
package repository

import "errors"

// ErrNotFound is returned when a requested key or row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrInvalidValue is returned when a stored value cannot be decoded.
var ErrInvalidValue = errors.New("invalid stored value")
