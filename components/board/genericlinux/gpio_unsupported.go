//go:build !linux

package genericlinux

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
)

var errUnsupported = errors.New("gpio character devices are only available on linux")

// gpioPin exists so the board compiles elsewhere; every operation fails.
type gpioPin struct{}

func newGPIOPin(devicePath string, offset uint32, logger logging.Logger) *gpioPin {
	// Don't even log anything here: if someone is running in a non-Linux environment, things
	// should work fine as long as they don't try using these pins.
	return &gpioPin{}
}

func (pin *gpioPin) Set(ctx context.Context, isHigh bool, extra map[string]interface{}) error {
	return errUnsupported
}

func (pin *gpioPin) Get(ctx context.Context, extra map[string]interface{}) (bool, error) {
	return false, errUnsupported
}

func (pin *gpioPin) SetDirection(ctx context.Context, dir board.Direction, extra map[string]interface{}) error {
	return errUnsupported
}

func (pin *gpioPin) Close() error {
	return nil
}
