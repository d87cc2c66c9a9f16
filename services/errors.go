package services

import (
	"errors"
	"fmt"
)

// ValidationError is a client input fault detected before any store access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError means a product referenced by the cart no longer exists.
type NotFoundError struct {
	ProductID string
	Name      string
}

func (e *NotFoundError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("Product %s not found", name)
}

// InsufficientStockError reports the product and how much of it is left.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s. Only %d available", e.ProductName, e.Available)
}

// TransactionConflictError wraps data-store contention. PlaceOrder retries it.
type TransactionConflictError struct {
	Err error
}

func (e *TransactionConflictError) Error() string {
	return fmt.Sprintf("transaction conflict: %v", e.Err)
}

func (e *TransactionConflictError) Unwrap() error {
	return e.Err
}

// InternalError is an unexpected fault. Its detail is for logs only.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUserRequired  = errors.New("acting user is required")
)

// isDomainError reports errors that carry a client-facing verdict and must
// pass through the transaction unchanged.
func isDomainError(err error) bool {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		stock      *InsufficientStockError
		conflict   *TransactionConflictError
		internal   *InternalError
	)
	return errors.As(err, &validation) ||
		errors.As(err, &notFound) ||
		errors.As(err, &stock) ||
		errors.As(err, &conflict) ||
		errors.As(err, &internal)
}
