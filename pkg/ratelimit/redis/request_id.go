package redis

import "github.com/google/uuid"

// NewRequestID returns a fresh identifier suitable for a gate lease. It
// is a convenience for callers that hold no natural request identifier
// of their own; any unique string works equally well.
func NewRequestID() string {
	return uuid.New().String()
}
