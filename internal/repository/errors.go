// Package repository implements MySQL persistence for bookings,
// online seat marks and staff accounts.  Sentinel errors defined here
// let higher layers such as handlers distinguish failure scenarios
// without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when an operation targets a row that does
// not exist, such as updating or deleting a booking by a stale id.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")
