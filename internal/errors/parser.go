package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a parsed code/message pair ready for a response body.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError translates storage-layer errors into a user-facing code and
// message without leaking internals. Validation and business errors are
// handled by the services; this covers everything that falls through.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	// Postgres unique constraint violation (23505)
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		if strings.Contains(errStr, "email") {
			return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "This email is already registered"}
		}
		if strings.Contains(errStr, "order_number") {
			return ErrorInfo{Code: ResourceConflict, Message: "Order number collision, please retry"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
	}

	// Postgres foreign key violation (23503)
	if strings.Contains(errStr, "foreign key constraint") {
		return ErrorInfo{Code: ResourceNotFound, Message: "Referenced record does not exist"}
	}

	// Postgres not-null violation (23502)
	if strings.Contains(errStr, "null value") && strings.Contains(errStr, "not-null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	// Network and connectivity failures: distinguished from validation so
	// the client knows a retry may help.
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Service temporarily unavailable. Please try again",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again later",
	}
}

// ParseAndRespond parses err and writes the standard error body.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

func notFoundMessage(context string) string {
	ctx := strings.ToLower(context)

	switch {
	case strings.Contains(ctx, "product"):
		return "Product not found"
	case strings.Contains(ctx, "order"):
		return "Order not found"
	case strings.Contains(ctx, "address"):
		return "Address not found"
	case strings.Contains(ctx, "cart"):
		return "Cart item not found"
	case strings.Contains(ctx, "user"):
		return "User not found"
	}
	return "Requested record not found"
}
