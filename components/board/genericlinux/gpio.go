//go:build linux

package genericlinux

import (
	"context"
	"sync"

	"github.com/mkch/gpio"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
)

const consumerLabel = "eeprom93cx6"

type gpioPin struct {
	// These values should both be considered immutable.
	devicePath string
	offset     uint32

	// These values are mutable. Lock the mutex when interacting with them.
	line      *gpio.Line
	direction board.Direction
	level     byte

	mu     sync.Mutex
	logger logging.Logger
}

func newGPIOPin(devicePath string, offset uint32, logger logging.Logger) *gpioPin {
	return &gpioPin{
		devicePath: devicePath,
		offset:     offset,
		logger:     logger,
	}
}

// This is a private helper function that should only be called when the mutex is locked. A line
// is requested for one direction only, so changing direction releases it and requests it again.
func (pin *gpioPin) openLine(dir board.Direction) error {
	if pin.line != nil {
		if pin.direction == dir {
			return nil
		}
		if err := pin.line.Close(); err != nil {
			return err
		}
		pin.line = nil
	}

	chip, err := gpio.OpenChip(pin.devicePath)
	if err != nil {
		return errors.Wrapf(err, "cannot open gpio chip %q", pin.devicePath)
	}
	defer utils.UncheckedErrorFunc(chip.Close)

	flags := gpio.Input
	if dir == board.DirectionOutput {
		flags = gpio.Output
	}
	// the default value only matters for outputs, which keep driving the last level set
	line, err := chip.OpenLine(pin.offset, pin.level, flags, consumerLabel)
	if err != nil {
		return errors.Wrapf(err, "cannot request line %d of %q as %s", pin.offset, pin.devicePath, dir)
	}
	pin.logger.Debugw("line requested", "chip", pin.devicePath, "offset", pin.offset, "direction", dir.String())
	pin.line = line
	pin.direction = dir
	return nil
}

// Set drives the line, requesting it as an output if it is not one already.
func (pin *gpioPin) Set(ctx context.Context, isHigh bool, extra map[string]interface{}) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	var value byte
	if isHigh {
		value = 1
	}
	pin.level = value
	if err := pin.openLine(board.DirectionOutput); err != nil {
		return err
	}
	return pin.line.SetValue(value)
}

// Get reads the line. A line never configured is requested as an input.
func (pin *gpioPin) Get(ctx context.Context, extra map[string]interface{}) (bool, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if pin.line == nil {
		if err := pin.openLine(board.DirectionInput); err != nil {
			return false, err
		}
	}
	value, err := pin.line.Value()
	if err != nil {
		return false, err
	}

	// We'd expect value to be either 0 or 1, but any non-zero value should be considered high.
	return value != 0, nil
}

// SetDirection requests the line for the given direction.
func (pin *gpioPin) SetDirection(ctx context.Context, dir board.Direction, extra map[string]interface{}) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()
	return pin.openLine(dir)
}

func (pin *gpioPin) Close() error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if pin.line == nil {
		return nil // Never opened, so no need to close
	}

	err := pin.line.Close()
	pin.line = nil
	return err
}
