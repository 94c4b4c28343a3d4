// Package validation collects request-level validation rules so handlers can
// reject malformed payloads before any service call.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Validator accumulates field errors for one request payload.
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator
func (v *Validator) AddError(field, message string) {
	v.Errors[field] = message
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Required checks if a string is not empty
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "must not be empty")
}

// Phone validates phone number format
func (v *Validator) Phone(field, phone string) {
	v.Check(phoneRegex.MatchString(phone), field, "must be a valid phone number")
}

// Positive checks that a monetary amount is greater than zero.
func (v *Validator) Positive(field string, amount decimal.Decimal) {
	v.Check(amount.IsPositive(), field, "must be greater than zero")
}

// OneOf checks membership in an allowed set.
func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}
