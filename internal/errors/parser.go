package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a low-level error into a code + message safe to show
// to storefront users. Internal detail (SQL, hosts, constraint names) never
// reaches the response.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM base errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL errors

	// 2-1. Unique constraint violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// 2-2. Foreign key constraint violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr)
	}

	// 2-3. Not null constraint violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return parseNotNullError(errStr)
	}

	// 3. Network/connectivity errors
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Could not reach an upstream service. Please try again in a moment",
		}
	}

	// 4. Default internal server error
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// parseDuplicateKeyError maps unique constraint violations
func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "An account with this email already exists",
		}
	}

	if strings.Contains(errLower, "order_number") || strings.Contains(errLower, "idx_orders_order_number") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "Order could not be saved. Please try again",
		}
	}

	if strings.Contains(errLower, "cart_items") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "This item is already in your cart",
		}
	}

	if strings.Contains(errLower, "wishlist") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "This item is already in your wishlist",
		}
	}

	if strings.Contains(errLower, "pkey") || strings.Contains(errLower, "primary key") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "This record already exists. Please try again",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

// parseForeignKeyError maps foreign key constraint violations
func parseForeignKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") || strings.Contains(errLower, "is still referenced by") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "This record is still in use and cannot be deleted",
		}
	}

	if strings.Contains(errLower, "user_id") || strings.Contains(errLower, "fk_users") {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "This account does not exist",
		}
	}
	if strings.Contains(errLower, "product_id") || strings.Contains(errLower, "fk_products") {
		return ErrorInfo{
			Code:    ProductNotFound,
			Message: "This product does not exist",
		}
	}
	if strings.Contains(errLower, "order_id") || strings.Contains(errLower, "fk_orders") {
		return ErrorInfo{
			Code:    OrderNotFound,
			Message: "This order does not exist",
		}
	}
	if strings.Contains(errLower, "address_id") || strings.Contains(errLower, "fk_addresses") {
		return ErrorInfo{
			Code:    AddressNotFound,
			Message: "This address does not exist",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "A referenced record could not be found",
	}
}

// parseNotNullError maps not-null constraint violations
func parseNotNullError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: ValidationRequired, Message: "Email is required"}
	}
	if strings.Contains(errLower, "password") {
		return ErrorInfo{Code: ValidationRequired, Message: "Password is required"}
	}
	if strings.Contains(errLower, "reason") {
		return ErrorInfo{Code: ValidationRequired, Message: "A return reason is required"}
	}
	if strings.Contains(errLower, "name") {
		return ErrorInfo{Code: ValidationRequired, Message: "Name is required"}
	}

	return ErrorInfo{
		Code:    ValidationRequired,
		Message: "A required field is missing",
	}
}

// getNotFoundMessage picks a not-found message for the given context
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "product") {
		return "Product not found"
	}
	if strings.Contains(contextLower, "order") {
		return "Order not found"
	}
	if strings.Contains(contextLower, "address") {
		return "Address not found"
	}
	if strings.Contains(contextLower, "return") {
		return "Return request not found"
	}
	if strings.Contains(contextLower, "cart") {
		return "Cart item not found"
	}
	if strings.Contains(contextLower, "user") {
		return "Account not found"
	}

	return "The requested record could not be found"
}

// getDefaultErrorMessage picks a fallback message for the given context
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") {
		return "Could not save the record. Please try again in a moment"
	}
	if strings.Contains(contextLower, "update") {
		return "Could not update the record. Please try again in a moment"
	}
	if strings.Contains(contextLower, "delete") {
		return "Could not delete the record. Please try again in a moment"
	}
	if strings.Contains(contextLower, "checkout") {
		return "Could not place the order. Please try again in a moment"
	}

	return "Something went wrong. Please try again in a moment"
}
