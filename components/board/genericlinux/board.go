// Package genericlinux implements a board on top of a Linux GPIO character device
// (/dev/gpiochipN). Lines are requested through mkch's gpio package on first use and held until
// the board is closed.
package genericlinux

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
)

// Model is the registered board model name.
const Model = "genericlinux"

func init() {
	board.RegisterBoard(
		Model,
		board.Registration[*Config]{
			Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (board.Board, error) {
				return NewBoard(ctx, conf, logger)
			},
		})
}

// Board hands out the lines of one GPIO chip.
type Board struct {
	mu     sync.Mutex
	conf   Config
	pins   map[uint32]*gpioPin
	logger logging.Logger
}

// NewBoard returns a board for the configured chip. Nothing is opened until a pin is used.
func NewBoard(ctx context.Context, conf *Config, logger logging.Logger) (*Board, error) {
	b := &Board{
		pins:   map[uint32]*gpioPin{},
		logger: logger,
	}
	if conf != nil {
		b.conf = *conf
	}
	logger.Debugw("using gpio chip", "path", b.conf.chipPath(), "named_pins", len(b.conf.Pins))
	return b, nil
}

// GPIOPinByName returns the line named by the config, or the line at the offset given by name.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	offset, err := b.conf.lineOffset(name)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if pin, ok := b.pins[offset]; ok {
		return pin, nil
	}
	pin := newGPIOPin(b.conf.chipPath(), offset, b.logger)
	b.pins[offset] = pin
	return pin, nil
}

// Close releases every line that was requested.
func (b *Board) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	for _, pin := range b.pins {
		err = multierr.Combine(err, pin.Close())
	}
	b.pins = map[uint32]*gpioPin{}
	return err
}
