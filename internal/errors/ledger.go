package errors

var (
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient funds",
	}
	ErrNoPoolFound = &DomainError{
		Code:    "NO_POOL_FOUND",
		Message: "no deposit pool found for buyer",
	}
	ErrMissingBuyer = &DomainError{
		Code:    "MISSING_BUYER",
		Message: "buyer does not exist",
	}
	ErrConcurrentModification = &DomainError{
		Code:    "CONCURRENT_MODIFICATION",
		Message: "operation conflicted with a concurrent change, retry",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero",
	}
	ErrAlreadyFinalized = &DomainError{
		Code:    "ALREADY_FINALIZED",
		Message: "request has already been finalized",
	}
	ErrNoPendingRequest = &DomainError{
		Code:    "NO_PENDING_REQUEST",
		Message: "owing deposit has no pending conversion request",
	}
	ErrDuplicateReference = &DomainError{
		Code:    "DUPLICATE_REFERENCE",
		Message: "a record with this reference already exists",
	}
	ErrAlreadyReconciled = &DomainError{
		Code:    "ALREADY_RECONCILED",
		Message: "transaction has already been reconciled",
	}
)
