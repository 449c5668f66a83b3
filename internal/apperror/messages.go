package apperror

var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeServiceTimeout:    "Service request timeout",
	CodeRateLimitExceeded: "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeVenueUnavailable:  "Venue is unavailable",
	CodeMalformedResponse: "Venue returned a malformed response",
	CodeUnknownVenue:      "Unknown venue",

	CodeHistoryUnavailable: "Historical price service unavailable",
	CodeInsufficientData:   "Not enough samples for indicator",
	CodeUnknownToken:       "Token is not registered",

	CodeDispatchFailed:     "Trade dispatch failed",
	CodeSigningFailed:      "Failed to sign trade intent",
	CodeNotConfirmed:       "Transaction was not confirmed",
	CodeInvalidTradeSize:   "Invalid trade size",
	CodeBalanceUnavailable: "Wallet balance unavailable",

	CodeReportFailed: "Failed to report event",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
