package apperror

// Code identifies a class of failure across the scanner.
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeServiceTimeout    Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Scanner error codes
const (
	// Venue adapters
	CodeVenueUnavailable  Code = "VENUE_UNAVAILABLE"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeUnknownVenue      Code = "UNKNOWN_VENUE"

	// Historical prices and indicators
	CodeHistoryUnavailable Code = "HISTORY_UNAVAILABLE"
	CodeInsufficientData   Code = "INSUFFICIENT_DATA"
	CodeUnknownToken       Code = "UNKNOWN_TOKEN"

	// Execution
	CodeDispatchFailed     Code = "DISPATCH_FAILED"
	CodeSigningFailed      Code = "SIGNING_FAILED"
	CodeNotConfirmed       Code = "NOT_CONFIRMED"
	CodeInvalidTradeSize   Code = "INVALID_TRADE_SIZE"
	CodeBalanceUnavailable Code = "BALANCE_UNAVAILABLE"

	// Reporting
	CodeReportFailed Code = "REPORT_FAILED"

	// Circuit breaker
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
