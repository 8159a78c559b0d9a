package auth

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid_token")
	ErrInvalidAddress   = errors.New("invalid_wallet_address")
	ErrInvalidSignature = errors.New("invalid_signature")
)
