// Package commonsysfs implements a board whose pins come from the periph.io host drivers (sysfs
// and the SoC specific drivers periph loads). Pins are looked up in periph's global registry.
package commonsysfs

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
)

// Model is the registered board model name.
const Model = "periph"

// A Config maps pin names to periph pin names such as "GPIO17". Names not listed are looked up in
// periph's registry as given.
type Config struct {
	Pins map[string]string `json:"pins,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	for name, hwPin := range conf.Pins {
		if hwPin == "" {
			return nil, goutils.NewConfigValidationFieldRequiredError(path+".pins", name)
		}
	}
	return nil, nil
}

func init() {
	if _, err := host.Init(); err != nil {
		logging.Global().Debugw("error initializing host", "error", err)
	}

	board.RegisterBoard(
		Model,
		board.Registration[*Config]{
			Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (board.Board, error) {
				return NewBoard(ctx, conf, logger)
			},
		})
}

// Board hands out periph pins.
type Board struct {
	mu     sync.Mutex
	conf   Config
	pins   map[string]*gpioPin
	logger logging.Logger
}

// NewBoard returns a board over periph's pin registry.
func NewBoard(ctx context.Context, conf *Config, logger logging.Logger) (*Board, error) {
	b := &Board{
		pins:   map[string]*gpioPin{},
		logger: logger,
	}
	if conf != nil {
		b.conf = *conf
	}
	return b, nil
}

func (b *Board) getGPIOLine(name string) (gpio.PinIO, error) {
	hwPin := name
	if mapped, ok := b.conf.Pins[name]; ok {
		hwPin = mapped
	}
	pin := gpioreg.ByName(hwPin)
	if pin == nil {
		return nil, errors.Errorf("no global pin found for %q", hwPin)
	}
	return pin, nil
}

// GPIOPinByName returns the named pin.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gp, ok := b.pins[name]; ok {
		return gp, nil
	}

	pin, err := b.getGPIOLine(name)
	if err != nil {
		return nil, err
	}
	b.logger.Debugw("pin resolved", "name", name, "periph_pin", pin.Name())
	gp := &gpioPin{pin: pin}
	b.pins[name] = gp
	return gp, nil
}

// Close halts every pin handed out.
func (b *Board) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	for _, gp := range b.pins {
		err = multierr.Combine(err, gp.pin.Halt())
	}
	b.pins = map[string]*gpioPin{}
	return err
}

type gpioPin struct {
	mu  sync.Mutex
	pin gpio.PinIO
}

func (gp *gpioPin) Set(ctx context.Context, high bool, extra map[string]interface{}) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	l := gpio.Low
	if high {
		l = gpio.High
	}
	return gp.pin.Out(l)
}

func (gp *gpioPin) Get(ctx context.Context, extra map[string]interface{}) (bool, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.pin.Read() == gpio.High, nil
}

// SetDirection switches the pin to input without touching its pull, or to an output driven low.
func (gp *gpioPin) SetDirection(ctx context.Context, dir board.Direction, extra map[string]interface{}) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	switch dir {
	case board.DirectionInput:
		return gp.pin.In(gpio.PullNoChange, gpio.NoEdge)
	case board.DirectionOutput:
		return gp.pin.Out(gpio.Low)
	default:
		return errors.Errorf("unknown direction %d", dir)
	}
}
