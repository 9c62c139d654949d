/*
Package validator wraps go-playground/validator for struct and
single-value validation, used by pkg/ratelimit to reject argument-domain
errors (non-positive burst/rate/window/timeout) before any store round trip.

Usage:

	import "github.com/distlimit/engine/pkg/validator"

	v := validator.New()

	// Validate struct
	err := v.ValidateStruct(myStruct)

	// Validate single value
	err := v.ValidateVar(rate, "gt=0")
*/
package validator
