package validator

import (
	"github.com/go-playground/validator/v10"
)

// Validator validates structs and individual values against tags.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the default tag set.
func New() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateStruct validates a struct using its `validate` tags.
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateVar validates a single value against a tag expression, e.g. "gt=0".
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}
