package bridge

import "codeberg.org/mutker/pointbridge/internal/errors"

const (
	// Connection Errors
	ErrInvalidEndpoint = errors.ErrorCode("conn_invalid_endpoint")
	ErrConnectFailed   = errors.ErrorCode("conn_open_failed")
	ErrRemoteClosed    = errors.ErrorCode("conn_remote_closed")

	// Transmission Errors
	ErrNotConnected = errors.ErrorCode("send_not_connected")
	ErrSendFailed   = errors.ErrorCode("send_write_failed")
	ErrEncodeFailed = errors.ErrorCode("send_encode_failed")

	// Capture Errors
	ErrProducerAttached = errors.ErrorCode("capture_producer_already_attached")
	ErrCaptureSend      = errors.ErrorCode("capture_send_failed")

	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
)
