package eeprom

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/eeprom93cx6/logging"
)

// opcode is the two bit instruction class at the top of every frame.
type opcode uint16

const (
	opControl opcode = 0b00
	opWrite   opcode = 0b01
	opRead    opcode = 0b10
	opErase   opcode = 0b11
)

// controlCode selects a chip-wide instruction within the control class. It occupies the two high
// bits of the address field.
type controlCode uint16

const (
	controlDisable  controlCode = 0b00
	controlWriteAll controlCode = 0b01
	controlEraseAll controlCode = 0b10
	controlEnable   controlCode = 0b11
)

func (cc controlCode) String() string {
	switch cc {
	case controlDisable:
		return "EWDS"
	case controlWriteAll:
		return "WRAL"
	case controlEraseAll:
		return "ERAL"
	case controlEnable:
		return "EWEN"
	}
	return fmt.Sprintf("controlCode(%d)", uint16(cc))
}

// frameBits is the length of a frame without the start bit.
func (d *Device) frameBits() int {
	return d.profile.AddressBits + 2
}

func (d *Device) addressFrame(op opcode, address uint16) uint16 {
	return uint16(op)<<d.profile.AddressBits | address&d.profile.AddressMask
}

func (d *Device) controlFrame(cc controlCode) uint16 {
	return uint16(opControl)<<d.profile.AddressBits | uint16(cc)<<(d.profile.AddressBits-2)
}

// wait blocks for dur on the device clock. A non-positive duration only checks the context.
func (d *Device) wait(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	timer := d.clock.Timer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Device) set(ctx context.Context, pin pinRole, high bool) error {
	if err := d.pins[pin].Set(ctx, high, nil); err != nil {
		return errors.Wrapf(err, "cannot set %s pin", pin)
	}
	return nil
}

// sendBits shifts out the low length bits of value, most significant first. Data in is set before
// the rising clock edge and held through the falling edge.
func (d *Device) sendBits(ctx context.Context, value uint16, length int) error {
	for i := length - 1; i >= 0; i-- {
		if err := d.set(ctx, pinDataIn, value>>uint(i)&1 == 1); err != nil {
			return err
		}
		if err := d.wait(ctx, d.timing.Settle); err != nil {
			return err
		}
		if err := d.set(ctx, pinClock, true); err != nil {
			return err
		}
		if err := d.wait(ctx, d.timing.Settle); err != nil {
			return err
		}
		if err := d.set(ctx, pinClock, false); err != nil {
			return err
		}
		if err := d.wait(ctx, d.timing.Settle); err != nil {
			return err
		}
	}
	return nil
}

// receiveBits clocks in n bits, most significant first, sampling data out while the clock is high.
func (d *Device) receiveBits(ctx context.Context, n int) (uint16, error) {
	var value uint16
	for i := 0; i < n; i++ {
		if err := d.set(ctx, pinClock, true); err != nil {
			return 0, err
		}
		if err := d.wait(ctx, d.timing.Read); err != nil {
			return 0, err
		}
		high, err := d.pins[pinDataOut].Get(ctx, nil)
		if err != nil {
			return 0, errors.Wrapf(err, "cannot read %s pin", pinDataOut)
		}
		value <<= 1
		if high {
			value |= 1
		}
		if err := d.set(ctx, pinClock, false); err != nil {
			return 0, err
		}
		if err := d.wait(ctx, d.timing.Read); err != nil {
			return 0, err
		}
	}
	return value, nil
}

// tracing reports whether frame level debug logs would be written.
func (d *Device) tracing(ctx context.Context) bool {
	return d.logger.GetLevel() <= logging.DEBUG || logging.IsDebugMode(ctx)
}

// transaction selects the chip, sends the start bit and frame, runs payload if any and deselects the
// chip. Chip select is driven low even when an earlier step failed.
func (d *Device) transaction(ctx context.Context, name string, frame uint16, payload func() error) (err error) {
	if d.tracing(ctx) {
		d.logger.CDebugw(ctx, "frame", "op", name, "bits", fmt.Sprintf("1%0*b", d.frameBits(), frame))
	}

	defer func() {
		if releaseErr := d.set(ctx, pinChipSelect, false); releaseErr != nil {
			err = multierr.Combine(err, releaseErr)
		}
	}()
	if err := d.set(ctx, pinChipSelect, true); err != nil {
		return err
	}
	if err := d.wait(ctx, d.timing.ChipSelect); err != nil {
		return err
	}
	if err := d.sendBits(ctx, 1, 1); err != nil {
		return err
	}
	if err := d.sendBits(ctx, frame, d.frameBits()); err != nil {
		return err
	}
	if payload != nil {
		return payload()
	}
	return nil
}

// waitReady selects the chip and samples data out until the chip reports the end of its
// program/erase cycle, then deselects it.
func (d *Device) waitReady(ctx context.Context, name string) (err error) {
	defer func() {
		if releaseErr := d.set(ctx, pinChipSelect, false); releaseErr != nil {
			err = multierr.Combine(err, releaseErr)
		}
	}()
	if err := d.set(ctx, pinChipSelect, true); err != nil {
		return err
	}

	start := d.clock.Now()
	for polls := 1; ; polls++ {
		ready, err := d.pins[pinDataOut].Get(ctx, nil)
		if err != nil {
			return errors.Wrapf(err, "cannot read %s pin", pinDataOut)
		}
		if ready {
			d.logger.CDebugw(ctx, "ready", "op", name, "polls", polls)
			return nil
		}
		if elapsed := d.clock.Since(start); d.timing.ReadyTimeout > 0 && elapsed >= d.timing.ReadyTimeout {
			d.logger.Warnw("chip did not become ready", "op", name, "elapsed", elapsed, "polls", polls)
			return &ReadyTimeoutError{Op: name, Elapsed: elapsed}
		}
		if err := d.wait(ctx, d.timing.PollInterval); err != nil {
			return errors.Wrapf(err, "%s: waiting for ready", name)
		}
	}
}
