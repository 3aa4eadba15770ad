// Package apperror provides the structured error type shared by every layer.
// Domain services return *AppError; the HTTP layer renders it into the response envelope.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Codes are part of the public API and must stay stable.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"

	// Input errors (400)
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidProducts        = "INVALID_PRODUCTS"
	CodeInvalidMaterials       = "INVALID_MATERIALS"
	CodeInvalidTypeCombination = "INVALID_TYPE_COMBINATION"

	// Business rule violations (400)
	CodeInsufficientStock          = "INSUFFICIENT_STOCK"
	CodeInsufficientStockForRevert = "INSUFFICIENT_STOCK_FOR_REVERT"
	CodeTableOccupied              = "TABLE_OCCUPIED"
	CodeOrderFinalized             = "ORDER_FINALIZED"
	CodeOrderCancelled             = "ORDER_CANCELLED"
	CodeOrderLinkedSale            = "ORDER_LINKED_SALE"

	// Authorization errors (401, 403, 429)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict         = "CONFLICT"
	CodeReferentialBlock = "REFERENTIAL_BLOCK"
)

// AppError is the standard error type for the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func newError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// --- Factory functions ---

// NewInvalidInput creates a shape/format violation error (400).
func NewInvalidInput(message string) *AppError {
	return newError(CodeInvalidInput, http.StatusBadRequest, message)
}

// NewInvalidProducts is returned when referenced products are missing or inactive.
func NewInvalidProducts(ids []string) *AppError {
	return newError(CodeInvalidProducts, http.StatusBadRequest, "One or more products are missing or inactive").
		WithDetail("product_ids", ids)
}

// NewInvalidMaterials is returned when referenced materials do not exist.
func NewInvalidMaterials(ids []string) *AppError {
	return newError(CodeInvalidMaterials, http.StatusBadRequest, "One or more materials do not exist").
		WithDetail("material_ids", ids)
}

// NewInvalidTypeCombination reports zone/table usage inconsistent with the order type.
func NewInvalidTypeCombination(message string) *AppError {
	return newError(CodeInvalidTypeCombination, http.StatusBadRequest, message)
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock creates a stock shortage error.
// Quantities are passed as strings to keep decimal precision in the response.
func NewInsufficientStock(materialID, requested, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"material_id": materialID,
			"requested":   requested,
			"available":   available,
		},
	}
}

// NewInsufficientStockForRevert is returned when undoing an earlier increment would drive stock negative.
func NewInsufficientStockForRevert(materialID string) *AppError {
	return newError(CodeInsufficientStockForRevert, http.StatusBadRequest, "Not enough stock left to revert the posted quantity").
		WithDetail("material_id", materialID)
}

// NewTableOccupied reports a table already bound to another active order.
func NewTableOccupied(tableID any) *AppError {
	return newError(CodeTableOccupied, http.StatusBadRequest, "Table is occupied by another active order").
		WithDetail("table_id", tableID)
}

// NewOrderFinalized is returned on any attempt to move a delivered order to another status.
func NewOrderFinalized(orderID any) *AppError {
	return newError(CodeOrderFinalized, http.StatusBadRequest, "Order is already delivered").
		WithDetail("order_id", orderID)
}

// NewOrderCancelled is returned on any attempt to move a cancelled order to another status.
func NewOrderCancelled(orderID any) *AppError {
	return newError(CodeOrderCancelled, http.StatusBadRequest, "Order is cancelled").
		WithDetail("order_id", orderID)
}

// NewOrderLinkedSale is returned when a sale generated from an order is edited directly.
func NewOrderLinkedSale(saleID any) *AppError {
	return newError(CodeOrderLinkedSale, http.StatusBadRequest, "Sale is linked to an order and cannot be edited directly").
		WithDetail("sale_id", saleID)
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message)
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, message)
}

// NewRateLimited creates a throttling error (429)
func NewRateLimited(message string) *AppError {
	return newError(CodeRateLimited, http.StatusTooManyRequests, message)
}

// NewConflict creates a unique-name collision error (409)
func NewConflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, message)
}

// NewDuplicate creates a conflict error naming the clashing field.
func NewDuplicate(entity, field, value string) *AppError {
	return NewConflict(fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

// NewReferentialBlock is returned when a delete is blocked by dependent rows.
func NewReferentialBlock(entity string, id any, reason string) *AppError {
	return newError(CodeReferentialBlock, http.StatusConflict, fmt.Sprintf("%s is in use: %s", entity, reason)).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
