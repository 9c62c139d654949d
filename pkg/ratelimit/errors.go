package ratelimit

import "github.com/distlimit/engine/pkg/errors"

// Error codes for rate-limit operations.
const (
	CodeTransport          = "RATELIMIT_TRANSPORT"
	CodeScriptHashMismatch = "RATELIMIT_SCRIPT_HASH_MISMATCH"
	CodeInvalidArgument    = "RATELIMIT_INVALID_ARGUMENT"
	CodeGateExhausted      = "RATELIMIT_GATE_EXHAUSTED"
	CodeUnexpectedResult   = "RATELIMIT_UNEXPECTED_RESULT"
)

// ErrTransport wraps a failure talking to the backing store.
func ErrTransport(err error) *errors.AppError {
	return errors.New(CodeTransport, "rate-limit store transport failure", err)
}

// ErrScriptHashMismatch reports that a script reloaded after a cache miss
// hashed to something other than what the catalogue expects, meaning the
// catalogue and the running script source have drifted. This is always
// fatal: it indicates a misbuild, not a transient condition.
func ErrScriptHashMismatch(scriptID, want, got string) *errors.AppError {
	return errors.New(CodeScriptHashMismatch,
		"script "+scriptID+" reloaded to unexpected hash: want "+want+" got "+got, nil)
}

// ErrInvalidArgument reports an out-of-domain argument (non-positive
// burst/rate/window/timeout) rejected before any store round trip.
func ErrInvalidArgument(msg string) *errors.AppError {
	return errors.New(CodeInvalidArgument, "invalid argument: "+msg, nil)
}

// ErrUnexpectedResult reports that a script's return value did not
// match the shape its caller expected, which means the script and its
// Go wrapper have drifted apart rather than anything the store did
// wrong.
func ErrUnexpectedResult(scriptID string) *errors.AppError {
	return errors.New(CodeUnexpectedResult, "unexpected script result shape for "+scriptID, nil)
}

// ErrGateExhausted reports that a concurrency gate had no free slot
// at the time of the call.
func ErrGateExhausted(key string) *errors.AppError {
	return errors.New(CodeGateExhausted, "concurrency gate exhausted for key: "+key, nil)
}
