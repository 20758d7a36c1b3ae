package advisory

import "errors"

var (
	// ErrUnsupportedIntent is returned by Respond for an intent it cannot route.
	ErrUnsupportedIntent = errors.New("unsupported intent")

	// ErrUnhandledCategory marks an input outside the engine's vocabulary.
	ErrUnhandledCategory = errors.New("unhandled category")

	ErrInvalidIndex  = errors.New("invalid air quality index")
	ErrMissingOutfit = errors.New("outfit observation required")
)
