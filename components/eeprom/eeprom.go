// Package eeprom drives the 93C46/56/66/76/86 family of three-wire serial EEPROMs over four GPIO
// pins. A Device frames instructions into bit sequences, shifts them across the bus and waits for
// the chip to finish every program or erase cycle.
package eeprom

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
)

type pinRole int

const (
	pinChipSelect pinRole = iota
	pinClock
	pinDataIn
	pinDataOut
)

func (r pinRole) String() string {
	switch r {
	case pinChipSelect:
		return "chip select"
	case pinClock:
		return "clock"
	case pinDataIn:
		return "data in"
	case pinDataOut:
		return "data out"
	}
	return "unknown"
}

// Pins are the four bus lines of one chip.
type Pins struct {
	ChipSelect board.GPIOPin
	Clock      board.GPIOPin
	DataIn     board.GPIOPin
	DataOut    board.GPIOPin
}

// An Option configures a Device.
type Option interface {
	apply(*options)
}

type options struct {
	clock clock.Clock
}

type funcOption func(*options)

func (fo funcOption) apply(o *options) {
	fo(o)
}

// WithClock makes the device take every delay and its ready deadline from c.
func WithClock(c clock.Clock) Option {
	return funcOption(func(o *options) {
		o.clock = c
	})
}

// A Device is an open chip. Its methods may be called from several goroutines; they are serialized.
type Device struct {
	mu sync.Mutex

	profile      Profile
	writeEnabled bool
	pins         [4]board.GPIOPin
	timing       Timing
	clock        clock.Clock
	logger       logging.Logger
}

// Open validates conf, then resolves the chip profile and the four pins it names from b.
func Open(ctx context.Context, b board.Board, conf *Config, logger logging.Logger, opts ...Option) (*Device, error) {
	if _, err := conf.Validate("eeprom"); err != nil {
		return nil, err
	}
	profile, err := conf.Profile()
	if err != nil {
		return nil, err
	}

	var pins Pins
	for _, p := range []struct {
		name string
		dst  *board.GPIOPin
	}{
		{conf.Pins.ChipSelect, &pins.ChipSelect},
		{conf.Pins.Clock, &pins.Clock},
		{conf.Pins.DataIn, &pins.DataIn},
		{conf.Pins.DataOut, &pins.DataOut},
	} {
		pin, err := b.GPIOPinByName(p.name)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot find pin %q", p.name)
		}
		*p.dst = pin
	}
	return NewDevice(ctx, profile, pins, conf.Timing.Timing(), logger, opts...)
}

// NewDevice configures the pin directions and leaves the bus idle with chip select and clock low.
// The write-enable latch is assumed off.
func NewDevice(
	ctx context.Context,
	profile Profile,
	pins Pins,
	timing Timing,
	logger logging.Logger,
	opts ...Option,
) (*Device, error) {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt.apply(&o)
	}

	d := &Device{
		profile: profile,
		pins:    [4]board.GPIOPin{pins.ChipSelect, pins.Clock, pins.DataIn, pins.DataOut},
		timing:  timing,
		clock:   o.clock,
		logger:  logger,
	}
	for role, pin := range d.pins {
		if pin == nil {
			return nil, errors.Errorf("%s pin is required", pinRole(role))
		}
		dir := board.DirectionOutput
		if pinRole(role) == pinDataOut {
			dir = board.DirectionInput
		}
		if err := pin.SetDirection(ctx, dir, nil); err != nil {
			return nil, errors.Wrapf(err, "cannot configure %s pin as %s", pinRole(role), dir)
		}
	}
	if err := d.set(ctx, pinChipSelect, false); err != nil {
		return nil, err
	}
	if err := d.set(ctx, pinClock, false); err != nil {
		return nil, err
	}

	logger.Infow("eeprom opened",
		"model", profile.Model.String(),
		"organization", profile.Organization.String(),
		"capacity", profile.Capacity,
		"address_bits", profile.AddressBits)
	return d, nil
}

// Profile returns the geometry the device was opened with.
func (d *Device) Profile() Profile {
	return d.profile
}

// Capacity returns the number of addressable units.
func (d *Device) Capacity() int {
	return d.profile.Capacity
}

// IsWriteEnabled reports whether write-class operations are currently permitted.
func (d *Device) IsWriteEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeEnabled
}

// Enable sends EWEN and permits write-class operations.
func (d *Device) Enable(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.transaction(ctx, controlEnable.String(), d.controlFrame(controlEnable), nil); err != nil {
		return err
	}
	d.writeEnabled = true
	return nil
}

// Disable sends EWDS and refuses write-class operations until the next Enable. The latch is
// considered off even if the transmission failed.
func (d *Device) Disable(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeEnabled = false
	return d.transaction(ctx, controlDisable.String(), d.controlFrame(controlDisable), nil)
}

// EraseAll sets every unit to all ones.
func (d *Device) EraseAll(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.programLocked(ctx, controlEraseAll.String(), d.controlFrame(controlEraseAll), nil)
}

// Erase sets the unit at address to all ones.
func (d *Device) Erase(ctx context.Context, address uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.programLocked(ctx, "ERASE", d.addressFrame(opErase, address), nil)
}

// WriteAll stores value in every unit. Bits above the word width are dropped.
func (d *Device) WriteAll(ctx context.Context, value uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.programLocked(ctx, controlWriteAll.String(), d.controlFrame(controlWriteAll), &value)
}

// Write stores value at address. Bits above the word width are dropped and the address is masked
// to the chip's address width.
func (d *Device) Write(ctx context.Context, address, value uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(ctx, address, value)
}

func (d *Device) writeLocked(ctx context.Context, address, value uint16) error {
	return d.programLocked(ctx, "WRITE", d.addressFrame(opWrite, address), &value)
}

// programLocked runs one write-class instruction and waits for its cycle to complete.
func (d *Device) programLocked(ctx context.Context, name string, frame uint16, value *uint16) error {
	if !d.writeEnabled {
		return ErrWriteDisabled
	}
	var payload func() error
	if value != nil {
		data := *value & d.profile.WordMask()
		payload = func() error {
			return d.sendBits(ctx, data, d.profile.WordBits())
		}
	}
	if err := d.transaction(ctx, name, frame, payload); err != nil {
		return err
	}
	return d.waitReady(ctx, name)
}

// Read returns the unit at address. Reading is permitted regardless of the write-enable latch.
func (d *Device) Read(ctx context.Context, address uint16) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readLocked(ctx, address)
}

func (d *Device) readLocked(ctx context.Context, address uint16) (uint16, error) {
	var value uint16
	err := d.transaction(ctx, "READ", d.addressFrame(opRead, address), func() error {
		var err error
		value, err = d.receiveBits(ctx, d.profile.WordBits())
		return err
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (d *Device) checkRange(start, n int) error {
	if start < 0 || n < 0 || start > d.profile.Capacity || n > d.profile.Capacity-start {
		return errors.Errorf("%d units from %d is outside of the %d unit array", n, start, d.profile.Capacity)
	}
	return nil
}

// ReadBlock reads n consecutive units starting at start.
func (d *Device) ReadBlock(ctx context.Context, start, n int) ([]uint16, error) {
	if err := d.checkRange(start, n); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	values := make([]uint16, n)
	for i := range values {
		value, err := d.readLocked(ctx, uint16(start+i))
		if err != nil {
			return nil, errors.Wrapf(err, "reading address %d", start+i)
		}
		values[i] = value
	}
	return values, nil
}

// WriteBlock writes values to consecutive units starting at start. Nothing is read back.
func (d *Device) WriteBlock(ctx context.Context, start int, values []uint16) error {
	if err := d.checkRange(start, len(values)); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.writeEnabled {
		return ErrWriteDisabled
	}
	for i, value := range values {
		if err := d.writeLocked(ctx, uint16(start+i), value); err != nil {
			return errors.Wrapf(err, "writing address %d", start+i)
		}
	}
	return nil
}
