package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidDuration        = errors.New("timer duration must be positive")
	ErrNoRecipe               = errors.New("no recipe selected")
	ErrMalformedRecipe        = errors.New("malformed recipe payload")
	ErrRecognitionUnsupported = errors.New("speech recognition not supported")
	ErrAssistantUnavailable   = errors.New("assistant unavailable")
	ErrInvalidPantryItem      = errors.New("pantry item needs a name")
)
