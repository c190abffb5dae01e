package pointcloud

import "codeberg.org/mutker/pointbridge/internal/errors"

const (
	// Serialization Errors
	ErrEncodeFailed = errors.ErrorCode("pointcloud_encode_failed")
	ErrDecodeFailed = errors.ErrorCode("pointcloud_decode_failed")
	ErrUnknownType  = errors.ErrorCode("pointcloud_unknown_message_type")
)
