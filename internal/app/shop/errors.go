package shop

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrItemNotFound    = errors.New("item_not_found")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrUserNotFound    = errors.New("user_not_found")
)
