// Package validator wraps go-playground struct validation behind a small
// injectable type shared by every HTTP handler.
package validator

import "github.com/go-playground/validator/v10"

// Validator checks request DTOs against their `validate` tags.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator. Custom tags (if any) are registered by the
// caller through RegisterValidation.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct runs tag validation on a struct value.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single value against a tag expression.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation adds a custom tag.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
