package commonsysfs

import (
	"context"
	"testing"

	"go.viam.com/test"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
	"go.viam.com/eeprom93cx6/utils"
)

func registerTestPin(t *testing.T, name string, num int) *gpiotest.Pin {
	t.Helper()
	pin := &gpiotest.Pin{N: name, Num: num}
	test.That(t, gpioreg.Register(pin), test.ShouldBeNil)
	t.Cleanup(func() {
		test.That(t, gpioreg.Unregister(name), test.ShouldBeNil)
	})
	return pin
}

func TestConfigValidate(t *testing.T) {
	conf := Config{}
	_, err := conf.Validate("path")
	test.That(t, err, test.ShouldBeNil)

	conf.Pins = map[string]string{"cs": ""}
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"cs" is required`)
}

func TestPeriphBoard(t *testing.T) {
	ctx := context.Background()
	hw := registerTestPin(t, "EEPROM_TEST_CS", 9101)
	registerTestPin(t, "EEPROM_TEST_DO", 9102)

	b, err := board.NewBoard(ctx, board.Config{
		Model:      Model,
		Attributes: utils.AttributeMap{"pins": map[string]interface{}{"cs": "EEPROM_TEST_CS"}},
	}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	_, err = b.GPIOPinByName("missing")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no global pin")

	cs, err := b.GPIOPinByName("cs")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.SetDirection(ctx, board.DirectionOutput, nil), test.ShouldBeNil)
	test.That(t, cs.Set(ctx, true, nil), test.ShouldBeNil)
	test.That(t, hw.Read(), test.ShouldEqual, gpio.High)
	high, err := cs.Get(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, high, test.ShouldBeTrue)

	test.That(t, cs.Set(ctx, false, nil), test.ShouldBeNil)
	test.That(t, hw.Read(), test.ShouldEqual, gpio.Low)

	// unmapped names go straight to the registry
	do, err := b.GPIOPinByName("EEPROM_TEST_DO")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, do.SetDirection(ctx, board.DirectionInput, nil), test.ShouldBeNil)
	high, err = do.Get(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, high, test.ShouldBeFalse)

	test.That(t, b.Close(ctx), test.ShouldBeNil)
}
