package play

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUserNotFound   = errors.New("user_not_found")
	ErrGameNotFound   = errors.New("game_not_found")
	ErrForbidden      = errors.New("forbidden")
	ErrActiveGame     = errors.New("active_game_exists")
)
