package util

import "errors"

var (
	ErrNotAuthorized    = errors.New("not authorized for this action")
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrLoadFailed       = errors.New("failed to load quiz data")
	ErrDeliveryFailed   = errors.New("remote delivery failed")
	ErrCacheInstall     = errors.New("cache install failed")
	ErrNoActiveSession  = errors.New("no active quiz session")
	ErrSessionActive    = errors.New("a quiz session is already active")
	ErrAttemptFrozen    = errors.New("attempt is already being submitted")
	ErrSessionNotActive = errors.New("quiz session is not active")
)
