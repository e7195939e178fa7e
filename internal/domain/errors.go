package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrUnsafeContent   = errors.New("unsafe content")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrGeneratorFailed = errors.New("generator failure")
)
