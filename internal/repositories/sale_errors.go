package repositories

import "fmt"

// SaleErrorCode enumerates repository error causes for sale operations.
type SaleErrorCode string

const (
	// SaleErrorUnknown represents an unspecified failure.
	SaleErrorUnknown SaleErrorCode = "sale_unknown"
	// SaleErrorNotFound indicates the sale does not exist.
	SaleErrorNotFound SaleErrorCode = "sale_not_found"
	// SaleErrorUnknownReference indicates an order line names a missing product or variant.
	SaleErrorUnknownReference SaleErrorCode = "sale_unknown_reference"
	// SaleErrorInactiveVariant indicates an order line targets an inactive product or variant.
	SaleErrorInactiveVariant SaleErrorCode = "sale_inactive_variant"
	// SaleErrorInsufficientStock indicates requested quantity exceeds availability.
	SaleErrorInsufficientStock SaleErrorCode = "sale_insufficient_stock"
	// SaleErrorCodeCollision indicates the tracking code is already reserved.
	SaleErrorCodeCollision SaleErrorCode = "sale_code_collision"
	// SaleErrorInvalidTransition indicates the status change is not allowed from the current state.
	SaleErrorInvalidTransition SaleErrorCode = "sale_invalid_transition"
)

// SaleError wraps sale-specific failures with machine readable codes.
// Available and Requested are populated for insufficient stock failures.
type SaleError struct {
	Op        string
	Code      SaleErrorCode
	Message   string
	Reference string
	Available int
	Requested int
	Err       error
}

// Error implements the error interface.
func (e *SaleError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *SaleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewSaleError constructs a typed sale error.
func NewSaleError(code SaleErrorCode, message string, err error) *SaleError {
	if message == "" {
		message = string(code)
	}
	return &SaleError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
