// Package validator wraps go-playground binding validation behind a
// small injectable type. This is part of the platform layer and
// contains no business logic; domain packages register their own tags
// via RegisterValidation.
package validator

import "github.com/go-playground/validator/v10"

// Validator validates transport structs against their validate tags.
type Validator struct {
	v *validator.Validate
}

// New creates an empty Validator. Modules add custom tags at wiring
// time.
func New() *Validator {
	return &Validator{
		v: validator.New(),
	}
}

// Struct validates a struct based on its validate tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag expression.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation installs a custom tag.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
