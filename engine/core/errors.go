package core

import (
	"errors"
)

var (
	// Native object creation was refused by the device.
	ErrNativeCreation = errors.New("native object creation failed")

	ErrTooManyColorAttachments = errors.New("too many color attachments")
	ErrAttachmentMismatch      = errors.New("attachments do not match the render pass layout")
	ErrInvalidAttachment       = errors.New("invalid attachment descriptor")
	ErrInvalidExtent           = errors.New("invalid render area extent")

	// Pass begin/end called out of turn on a command buffer.
	ErrRenderPassProtocol = errors.New("render pass protocol violation")

	ErrFenceTimeout = errors.New("fence wait timed out")

	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknown       = errors.New("unknown")
)
