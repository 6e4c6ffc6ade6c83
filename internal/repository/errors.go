// Package repository persists reservation events and serves the read-side
// queries over the same schema.  Sentinel errors defined here let callers
// distinguish failure scenarios without string matching.
package repository

import "errors"

// ErrMissingUUID is returned when a reservation event carries no external
// identifier.  Without the uuid there is no idempotency key, so the event
// cannot be persisted safely and the message should be rejected.
var ErrMissingUUID = errors.New("reservation event has no uuid")
