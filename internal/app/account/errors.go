package account

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUserNotFound   = errors.New("user_not_found")
	ErrUnauthorized   = errors.New("unauthorized")
)
