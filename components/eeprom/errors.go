package eeprom

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrWriteDisabled is returned by write-class operations issued while the write-enable latch is
	// off. Nothing is transmitted in that case.
	ErrWriteDisabled = errors.New("eeprom: erase/write is disabled, call Enable first")

	// ErrReadyTimeout is matched by every ReadyTimeoutError.
	ErrReadyTimeout = errors.New("eeprom: timed out waiting for ready")
)

// ConfigError reports an unsupported model or organization.
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("eeprom: unsupported %s %q", e.Field, e.Value)
}

// ReadyTimeoutError is returned when the chip does not signal the end of a program/erase cycle
// within the configured ready timeout.
type ReadyTimeoutError struct {
	Op      string
	Elapsed time.Duration
}

func (e *ReadyTimeoutError) Error() string {
	return fmt.Sprintf("eeprom: %s: chip still busy after %s", e.Op, e.Elapsed)
}

// Is makes errors.Is(err, ErrReadyTimeout) hold.
func (e *ReadyTimeoutError) Is(target error) bool {
	return target == ErrReadyTimeout
}
