package session

import (
	"fmt"
	"time"
)

// Config tunes the engine.
type Config struct {
	// CallTimeout bounds every engine operation, storage calls
	// included. Default: 5s.
	CallTimeout time.Duration

	// DefaultQuestionCount applies when a start request names none.
	// Default: 10.
	DefaultQuestionCount int

	// MaxQuestionCount caps the questions per session. Default: 100.
	MaxQuestionCount int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CallTimeout:          5 * time.Second,
		DefaultQuestionCount: 10,
		MaxQuestionCount:     100,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive, got %s", c.CallTimeout)
	}
	if c.DefaultQuestionCount < 1 {
		return fmt.Errorf("default question count must be at least 1, got %d", c.DefaultQuestionCount)
	}
	if c.MaxQuestionCount < c.DefaultQuestionCount {
		return fmt.Errorf("max question count %d is below the default %d", c.MaxQuestionCount, c.DefaultQuestionCount)
	}
	return nil
}
