package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// Authorization
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"

	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// Resources
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// Exam session
	ErrNoAttemptsLeft  ErrCode = "NO_ATTEMPTS_LEFT"
	ErrSessionActive   ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrNoActiveSession ErrCode = "NO_ACTIVE_SESSION"
	ErrSessionEnded    ErrCode = "SESSION_ENDED"
	ErrTimeUp          ErrCode = "TIME_UP"
	ErrDataIntegrity   ErrCode = "DATA_INTEGRITY_ERROR"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// Authentication
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// Authorization
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."

	// Validation
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// Resources
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// Exam session
	case ErrNoAttemptsLeft:
		return "You have used all of your exam attempts."
	case ErrSessionActive:
		return "You already have an exam in progress."
	case ErrNoActiveSession:
		return "You do not have an exam in progress."
	case ErrSessionEnded:
		return "This exam attempt has already ended."
	case ErrTimeUp:
		return "Time is up. Your exam has been submitted."
	case ErrDataIntegrity:
		return "A question in this exam is misconfigured. The attempt was cancelled."

	// Server
	case ErrInternal:
		return "An internal server error occurred. Please try again later."
	}
	return "An unknown error occurred."
}
