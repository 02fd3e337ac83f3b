package shortener

import (
	"errors"
)

// Config holds configuration for short ID generation
type Config struct {
	MinLength int `mapstructure:"min_length"` // Length of a short ID when no collision is observed
}

// DefaultMinLength is the short ID length used when none is configured
const DefaultMinLength = 6

// ErrExhausted is returned when every prefix of an encoding is already taken by another short ID
var ErrExhausted = errors.New("no free short ID prefix left for this URL")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MinLength: DefaultMinLength,
	}
}
