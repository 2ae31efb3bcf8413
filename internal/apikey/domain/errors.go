package domain

import "errors"

var (
	ErrInvalidKey = errors.New("invalid_api_key")
	ErrKeyExpired = errors.New("api_key_expired")
)
