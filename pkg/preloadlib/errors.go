package preloadlib

import "errors"

var (
	ErrHostUnavailable = errors.New("presentation host is not available")
	ErrEmptyDeck       = errors.New("deck has no slides")
	ErrAlreadyStarted  = errors.New("preloader has already been started")
	ErrDisabled        = errors.New("preloading is disabled by configuration")

	ErrUnsupportedLoadScheme = errors.New("unsupported URL scheme")
)
