package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig    ErrorCode = "invalid_configuration"
	ErrBindFlags        ErrorCode = "bind_flags_failed"
	ErrReadConfig       ErrorCode = "read_config_failed"
	ErrInvalidLogLevel  ErrorCode = "invalid_log_level"
	ErrInvalidInterval  ErrorCode = "invalid_interval"
	ErrInvalidBatchSize ErrorCode = "invalid_batch_size"
	ErrInvalidEndpoint  ErrorCode = "invalid_endpoint"

	// Lifecycle errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"
	ErrMainLoop       ErrorCode = "main_loop_failed"

	// Operation errors
	ErrOperationFailed  ErrorCode = "operation_failed"
	ErrTimeout          ErrorCode = "operation_timeout"
	ErrInvalidOperation ErrorCode = "invalid_operation"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrUnavailable:      "Service unavailable",
	ErrInvalidConfig:    "Invalid configuration",
	ErrBindFlags:        "Failed to bind flags",
	ErrReadConfig:       "Failed to read configuration",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrInvalidInterval:  "Invalid interval value",
	ErrInvalidBatchSize: "Invalid batch size",
	ErrInvalidEndpoint:  "Invalid endpoint",
	ErrInitFailed:       "Initialization failed",
	ErrShutdownFailed:   "Shutdown failed",
	ErrAlreadyRunning:   "Another instance is already running",
	ErrMainLoop:         "Error in main loop",
	ErrOperationFailed:  "Operation failed",
	ErrTimeout:          "Operation timed out",
	ErrInvalidOperation: "Invalid operation",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
