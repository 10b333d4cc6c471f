// Package fake implements a fake board whose pins remember what was last written to them. A fake
// board can optionally carry a simulated 93Cx6 chip wired to four of its pins.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
)

// Model is the registered board model name of the fake board.
const Model = "fake"

// A Config describes the configuration of a fake board and the chip attached to it, if any.
type Config struct {
	Chip    *ChipConfig `json:"chip,omitempty"`
	FailNew bool        `json:"fail_new,omitempty"`
}

// ChipConfig describes the simulated chip and the pins it is wired to.
type ChipConfig struct {
	Model        string `json:"model"`
	Organization int    `json:"organization"`
	ChipSelect   string `json:"chip_select"`
	Clock        string `json:"clock"`
	DataIn       string `json:"data_in"`
	DataOut      string `json:"data_out"`
	// BusyPolls is how many samples of the data out line read low after a write cycle.
	BusyPolls  int  `json:"busy_polls,omitempty"`
	NeverReady bool `json:"never_ready,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	if conf.FailNew {
		return nil, errors.New("whoops")
	}
	if conf.Chip != nil {
		if err := conf.Chip.Validate(fmt.Sprintf("%s.%s", path, "chip")); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// Validate ensures all parts of the config are valid.
func (conf *ChipConfig) Validate(path string) error {
	if conf.Model == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if _, err := lookupGeometry(conf.Model, conf.Organization); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	for field, pin := range map[string]string{
		"chip_select": conf.ChipSelect,
		"clock":       conf.Clock,
		"data_in":     conf.DataIn,
		"data_out":    conf.DataOut,
	} {
		if pin == "" {
			return goutils.NewConfigValidationFieldRequiredError(path, field)
		}
	}
	if conf.BusyPolls < 0 {
		return goutils.NewConfigValidationError(path, errors.New("busy_polls cannot be negative"))
	}
	return nil
}

func init() {
	board.RegisterBoard(
		Model,
		board.Registration[*Config]{
			Constructor: func(ctx context.Context, conf *Config, logger logging.Logger) (board.Board, error) {
				return NewBoard(ctx, conf, logger)
			},
		})
}

// NewBoard returns a new fake board.
func NewBoard(ctx context.Context, conf *Config, logger logging.Logger) (*Board, error) {
	b := &Board{
		GPIOPins: map[string]*GPIOPin{},
		logger:   logger,
	}
	if conf == nil || conf.Chip == nil {
		return b, nil
	}

	chip, err := NewChip(conf.Chip.Model, conf.Chip.Organization)
	if err != nil {
		return nil, err
	}
	chip.busyPolls = conf.Chip.BusyPolls
	chip.neverReady = conf.Chip.NeverReady
	b.attach(chip, conf.Chip)
	logger.Debugw("simulated chip attached",
		"model", conf.Chip.Model, "words", len(chip.mem), "address_bits", chip.addressBits)
	return b, nil
}

// A Board provides fake pins that read back the values set on them.
type Board struct {
	mu         sync.Mutex
	GPIOPins   map[string]*GPIOPin
	Chip       *Chip
	logger     logging.Logger
	CloseCount int
}

func (b *Board) attach(chip *Chip, conf *ChipConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Chip = chip
	b.pinLocked(conf.ChipSelect).onSet = chip.setChipSelect
	b.pinLocked(conf.Clock).onSet = chip.setClock
	b.pinLocked(conf.DataIn).onSet = chip.setDataIn
	b.pinLocked(conf.DataOut).source = chip.dataOut
}

func (b *Board) pinLocked(name string) *GPIOPin {
	p, ok := b.GPIOPins[name]
	if !ok {
		p = &GPIOPin{}
		b.GPIOPins[name] = p
	}
	return p
}

// GPIOPinByName returns the GPIO pin by the given name, creating it on first use.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pinLocked(name), nil
}

// Close counts how many times the board was closed.
func (b *Board) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CloseCount++
	return nil
}

// A GPIOPin reads back the same set values, unless a simulated chip drives it.
type GPIOPin struct {
	high      bool
	direction board.Direction
	setCount  int

	onSet  func(high bool)
	source func() bool

	mu sync.Mutex
}

// Set sets the pin to either low or high.
func (gp *GPIOPin) Set(ctx context.Context, high bool, extra map[string]interface{}) error {
	gp.mu.Lock()
	gp.high = high
	gp.setCount++
	onSet := gp.onSet
	gp.mu.Unlock()

	if onSet != nil {
		onSet(high)
	}
	return nil
}

// Get gets the high/low state of the pin.
func (gp *GPIOPin) Get(ctx context.Context, extra map[string]interface{}) (bool, error) {
	gp.mu.Lock()
	high, source := gp.high, gp.source
	gp.mu.Unlock()

	if source != nil {
		return source(), nil
	}
	return high, nil
}

// SetDirection records the configured direction.
func (gp *GPIOPin) SetDirection(ctx context.Context, dir board.Direction, extra map[string]interface{}) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.direction = dir
	return nil
}

// Direction returns the last configured direction.
func (gp *GPIOPin) Direction() board.Direction {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.direction
}

// SetCount returns how many times Set was called on the pin.
func (gp *GPIOPin) SetCount() int {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.setCount
}
