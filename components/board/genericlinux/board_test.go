package genericlinux

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
	"go.viam.com/eeprom93cx6/utils"
)

func TestConfigValidate(t *testing.T) {
	conf := Config{}
	_, err := conf.Validate("path")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.chipPath(), test.ShouldEqual, DefaultGPIOChip)

	conf.Pins = map[string]int{"cs": -4}
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "path.pins")
	test.That(t, err.Error(), test.ShouldContainSubstring, "negative line offset")

	conf.Pins = map[string]int{"": 3}
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)

	conf = Config{GPIOChip: "/dev/gpiochip4", Pins: map[string]int{"cs": 17}}
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.chipPath(), test.ShouldEqual, "/dev/gpiochip4")
}

func TestLineOffset(t *testing.T) {
	conf := Config{Pins: map[string]int{"cs": 17, "22": 5}}

	offset, err := conf.lineOffset("cs")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, offset, test.ShouldEqual, uint32(17))

	// configured names win over offsets
	offset, err = conf.lineOffset("22")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, offset, test.ShouldEqual, uint32(5))

	offset, err = conf.lineOffset("23")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, offset, test.ShouldEqual, uint32(23))

	_, err = conf.lineOffset("sk")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = conf.lineOffset("-1")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGenericLinux(t *testing.T) {
	ctx := context.Background()
	b, err := board.NewBoard(ctx, board.Config{
		Model:      Model,
		Attributes: utils.AttributeMap{"gpio_chip": "/dev/does-not-exist", "pins": map[string]interface{}{"cs": 3}},
	}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	_, err = b.GPIOPinByName("sk")
	test.That(t, err, test.ShouldNotBeNil)

	pin, err := b.GPIOPinByName("cs")
	test.That(t, err, test.ShouldBeNil)
	samePin, err := b.GPIOPinByName("3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, samePin, test.ShouldEqual, pin)

	// lines are only requested on use, and the chip is missing
	test.That(t, pin.Set(ctx, true, nil), test.ShouldNotBeNil)
	_, err = pin.Get(ctx, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, pin.SetDirection(ctx, board.DirectionInput, nil), test.ShouldNotBeNil)

	test.That(t, b.Close(ctx), test.ShouldBeNil)
}
