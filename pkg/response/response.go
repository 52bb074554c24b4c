package response

// Error codes shared by all services
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInvalidState     = "INVALID_STATE_TRANSITION"
	ErrCodeInsufficient     = "INSUFFICIENT_STOCK"
	ErrCodeSoldOut          = "INSUFFICIENT_AVAILABILITY"
	ErrCodeRateUnavailable  = "RATE_UNAVAILABLE"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeTryAgain         = "TRY_AGAIN"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeIdempotencyInUse = "IDEMPOTENCY_IN_PROGRESS"
)

// Response is the envelope for every API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorData describes a failed request
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta carries pagination info
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Success wraps data in a successful response
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Paginated wraps a page of results
func Paginated(data interface{}, page, perPage int, total int64) Response {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// Error builds a failed response with the given code
func Error(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorData{Code: code, Message: message},
	}
}

// ErrorWithDetails builds a failed response carrying extra details
func ErrorWithDetails(code, message, details string) Response {
	return Response{
		Success: false,
		Error:   &ErrorData{Code: code, Message: message, Details: details},
	}
}

func BadRequest(message string) Response {
	return Error(ErrCodeBadRequest, message)
}

func ValidationError(message string) Response {
	return Error(ErrCodeValidation, message)
}

func Unauthorized(message string) Response {
	return Error(ErrCodeUnauthorized, message)
}

func Forbidden(message string) Response {
	return Error(ErrCodeForbidden, message)
}

func NotFound(message string) Response {
	return Error(ErrCodeNotFound, message)
}

func Conflict(message string) Response {
	return Error(ErrCodeConflict, message)
}

func InternalError(message string) Response {
	return Error(ErrCodeInternal, message)
}

// TryAgain is returned for transient backend failures
func TryAgain(message string) Response {
	return Error(ErrCodeTryAgain, message)
}
