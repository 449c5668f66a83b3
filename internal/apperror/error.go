package apperror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// AppError implements the error interface and carries a stable code.
type AppError struct {
	Code      Code      `json:"code"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	TraceID   string    `json:"traceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
	stack     []uintptr
}

// Error implements the error interface
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Context)
		sb.WriteString(")")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithTraceID sets the trace ID for distributed tracing
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// LogAttrs returns the error as alternating key/value pairs for slog.
func (e *AppError) LogAttrs() []any {
	attrs := []any{"code", string(e.Code), "message", e.Message}
	if e.Context != "" {
		attrs = append(attrs, "context", e.Context)
	}
	if e.TraceID != "" {
		attrs = append(attrs, "trace_id", e.TraceID)
	}
	if e.cause != nil {
		attrs = append(attrs, "cause", e.cause.Error())
	}
	return attrs
}

// Stack returns the formatted stack captured at construction.
func (e *AppError) Stack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			sb.WriteString(fmt.Sprintf("\n\t%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Message:   messages[code],
		Timestamp: time.Now(),
		stack:     captureStack(),
	}

	for _, opt := range opts {
		opt(err)
	}

	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithContextf adds formatted context information
func WithContextf(format string, args ...any) Option {
	return func(e *AppError) {
		e.Context = fmt.Sprintf(format, args...)
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// Wrap converts err into an AppError with code, keeping existing AppErrors as-is.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return New(code, WithContext(context), WithCause(err))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &AppError{Code: code})
}
