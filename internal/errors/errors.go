// Package errors defines the domain error kinds surfaced by the ledger core.
package errors

// DomainError is an error with a stable machine-readable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
