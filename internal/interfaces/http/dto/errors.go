package dto

import "net/http"

// Transport-level error codes. Domain errors carry their own codes
// (ACCOUNT_NOT_FOUND, INVALID_DELTA, ...) which pass through unchanged.
const (
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request body validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeNotFound is used when a route resource is not found
	ErrCodeNotFound = "NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Missing resources map to 404, rejected-but-well-formed operations to
// 422, and conflicts with existing state to 409.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	// Missing resources
	"NOT_FOUND":         http.StatusNotFound,
	"ACCOUNT_NOT_FOUND": http.StatusNotFound,

	// Malformed input
	"INVALID_INPUT":  http.StatusBadRequest,
	"INVALID_AMOUNT": http.StatusBadRequest,

	// Well-formed but rejected by ledger rules
	"INVALID_DELTA":         http.StatusUnprocessableEntity,
	"SAME_ACCOUNT_TRANSFER": http.StatusUnprocessableEntity,
	"OVERPAYMENT_REJECTED":  http.StatusUnprocessableEntity,
	"ACCOUNT_FROZEN":        http.StatusUnprocessableEntity,
	"INVALID_STATE":         http.StatusUnprocessableEntity,

	// Conflicts with current state
	"ALREADY_EXISTS":       http.StatusConflict,
	"DUPLICATE_REQUEST":    http.StatusConflict,
	"ACCOUNT_HAS_HISTORY":  http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// The books no longer balance; nothing the client can fix
	"LEDGER_CORRUPTION": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
