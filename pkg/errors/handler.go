package errors

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const internalMessage = "An internal error occurred"

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// ErrorHandler answers failed requests with an ErrorResponse. Outside debug
// mode server faults are reported without their message or details.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		debug:  debug,
	}
}

// Handle answers the request with the response err maps to. Errors that are
// not application errors become internal errors.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := GetAppError(err)
	if appErr == nil {
		appErr = &AppError{
			Type:       ErrorTypeInternal,
			Message:    err.Error(),
			Cause:      err,
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	h.log(r, appErr, status)
	h.write(w, status, appErr.RetryAfter, h.response(r, appErr, status))
}

// HandleStatus answers with a bare status, for failures that never produced
// an error value such as unknown routes
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.logger.Warn("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("message", message),
	)

	h.write(w, status, 0, ErrorResponse{
		Error:     true,
		Type:      string(errorTypeFor(status)),
		Message:   message,
		RequestID: requestIDFrom(r),
		TraceID:   traceIDFrom(r),
	})
}

// Middleware returns an HTTP middleware that turns panics into error responses
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (h *ErrorHandler) response(r *http.Request, appErr *AppError, status int) ErrorResponse {
	resp := ErrorResponse{
		Error:     true,
		Type:      string(appErr.Type),
		Message:   appErr.Message,
		Code:      appErr.Code,
		Details:   appErr.Details,
		RequestID: requestIDFrom(r),
		TraceID:   traceIDFrom(r),
	}
	if status < http.StatusInternalServerError {
		return resp
	}

	if !h.debug {
		resp.Message = internalMessage
		resp.Details = nil
		return resp
	}
	if appErr.StackTrace != "" {
		details := make(map[string]interface{}, len(appErr.Details)+1)
		for k, v := range appErr.Details {
			details[k] = v
		}
		details["stack_trace"] = appErr.StackTrace
		resp.Details = details
	}
	return resp
}

// log reports server faults at error level and client faults at warn
func (h *ErrorHandler) log(r *http.Request, appErr *AppError, status int) {
	fields := []zap.Field{
		zap.String("error_type", string(appErr.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", requestIDFrom(r)),
	}
	if traceID := traceIDFrom(r); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if appErr.Code != "" {
		fields = append(fields, zap.String("error_code", appErr.Code))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}
	if appErr.Details != nil {
		fields = append(fields, zap.Any("details", appErr.Details))
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(appErr.Message, fields...)
		return
	}
	h.logger.Warn(appErr.Message, fields...)
}

// write sends the response with the headers its status calls for
func (h *ErrorHandler) write(w http.ResponseWriter, status int, retryAfter time.Duration, resp ErrorResponse) {
	header := w.Header()
	switch status {
	case http.StatusUnauthorized:
		header.Set("WWW-Authenticate", "Bearer")
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		if retryAfter > 0 {
			header.Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		}
	}
	header.Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response",
			zap.Error(err),
			zap.Int("status", status),
		)
	}
}

// errorTypeFor maps an HTTP status to the error type reported with it
func errorTypeFor(status int) ErrorType {
	switch status {
	case http.StatusBadRequest:
		return ErrorTypeValidation
	case http.StatusUnauthorized:
		return ErrorTypeUnauthorized
	case http.StatusForbidden:
		return ErrorTypeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return ErrorTypeNotFound
	case http.StatusConflict:
		return ErrorTypeConflict
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusServiceUnavailable:
		return ErrorTypeUnavailable
	case http.StatusBadGateway:
		return ErrorTypeExternal
	default:
		return ErrorTypeInternal
	}
}

func requestIDFrom(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

func traceIDFrom(r *http.Request) string {
	return r.Header.Get("X-Amzn-Trace-Id")
}
