package errors

import "net/http"

// ErrorCode is the typed failure category carried by every AppError.
// Codes are stable integers; never reorder existing entries.
type ErrorCode int

const (
	// CodeOK is the zero value and means "no error".
	CodeOK ErrorCode = 0

	// CodeUnknown is used when no more specific classification applies,
	// typically when wrapping an error from a foreign library.
	CodeUnknown ErrorCode = 1

	// Request / validation failures.
	CodeInvalidParam ErrorCode = 100
	CodeNotFound     ErrorCode = 101
	CodeConflict     ErrorCode = 102

	// Server-side failures.
	CodeInternal    ErrorCode = 200
	CodeUnavailable ErrorCode = 201
	CodeRateLimited ErrorCode = 202
	CodeCancelled   ErrorCode = 203

	// Infrastructure failures.
	CodeDatabaseError     ErrorCode = 300
	CodeCacheError        ErrorCode = 301
	CodeMessageQueueError ErrorCode = 302

	// Bulk-operation outcomes. A completed bulk operation with zero
	// successes classifies as CodeCompleteFailure; one with a mix of
	// successes and failures classifies as CodePartialFailure.
	CodeRemoteAPIError  ErrorCode = 400
	CodeCompleteFailure ErrorCode = 401
	CodePartialFailure  ErrorCode = 402
	CodeCircuitOpen     ErrorCode = 403
)

// codeNames maps every ErrorCode to its canonical name used in Error()
// output, logs, and metric labels.
var codeNames = map[ErrorCode]string{
	CodeOK:                "OK",
	CodeUnknown:           "UNKNOWN",
	CodeInvalidParam:      "INVALID_PARAM",
	CodeNotFound:          "NOT_FOUND",
	CodeConflict:          "CONFLICT",
	CodeInternal:          "INTERNAL",
	CodeUnavailable:       "UNAVAILABLE",
	CodeRateLimited:       "RATE_LIMITED",
	CodeCancelled:         "CANCELLED",
	CodeDatabaseError:     "DATABASE_ERROR",
	CodeCacheError:        "CACHE_ERROR",
	CodeMessageQueueError: "MESSAGE_QUEUE_ERROR",
	CodeRemoteAPIError:    "REMOTE_API_ERROR",
	CodeCompleteFailure:   "COMPLETE_FAILURE",
	CodePartialFailure:    "PARTIAL_FAILURE",
	CodeCircuitOpen:       "CIRCUIT_OPEN",
}

// String returns the canonical upper-snake name for the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// HTTPStatus maps the code to the HTTP status the API layer responds with.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable, CodeCircuitOpen:
		return http.StatusServiceUnavailable
	case CodeCancelled:
		// 499 is the de-facto "client closed request" status.
		return 499
	case CodeRemoteAPIError, CodeCompleteFailure, CodePartialFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
