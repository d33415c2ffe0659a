package errors

// Error code constants, format: CATEGORY_SPECIFIC_DETAIL.
// The frontend maps these codes to display messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Cart (CART_) ====================
	CartItemNotFound     = "CART_ITEM_NOT_FOUND"
	CartEmpty            = "CART_EMPTY"
	CartInvalidQty       = "CART_INVALID_QUANTITY"
	GuestSessionNotFound = "CART_GUEST_SESSION_NOT_FOUND"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderDuplicateSubmit   = "ORDER_DUPLICATE_SUBMIT"
	OrderInvalidPayment    = "ORDER_INVALID_PAYMENT"

	// ==================== Returns (RETURN_) ====================
	ReturnNotFound          = "RETURN_NOT_FOUND"
	ReturnAlreadyRequested  = "RETURN_ALREADY_REQUESTED"
	ReturnNotDelivered      = "RETURN_ORDER_NOT_DELIVERED"
	ReturnInvalidTransition = "RETURN_INVALID_TRANSITION"

	// ==================== Addresses (ADDRESS_) ====================
	AddressNotFound = "ADDRESS_NOT_FOUND"

	// ==================== Products (PRODUCT_) ====================
	ProductNotFound = "PRODUCT_NOT_FOUND"
	VariantNotFound = "PRODUCT_VARIANT_NOT_FOUND"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
