package fake

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/logging"
	"go.viam.com/eeprom93cx6/utils"
)

func chipConfig() *ChipConfig {
	return &ChipConfig{
		Model:        "93c46",
		Organization: 8,
		ChipSelect:   "cs",
		Clock:        "sk",
		DataIn:       "di",
		DataOut:      "do",
	}
}

func TestFakeBoard(t *testing.T) {
	logger := logging.NewTestLogger(t)
	b, err := NewBoard(context.Background(), &Config{}, logger)
	test.That(t, err, test.ShouldBeNil)

	pin, err := b.GPIOPinByName("1")
	test.That(t, err, test.ShouldBeNil)
	high, err := pin.Get(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, high, test.ShouldBeFalse)

	test.That(t, pin.Set(context.Background(), true, nil), test.ShouldBeNil)
	high, err = pin.Get(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, high, test.ShouldBeTrue)

	test.That(t, pin.SetDirection(context.Background(), board.DirectionOutput, nil), test.ShouldBeNil)
	test.That(t, b.GPIOPins["1"].Direction(), test.ShouldEqual, board.DirectionOutput)
	test.That(t, b.GPIOPins["1"].SetCount(), test.ShouldEqual, 1)

	samePin, err := b.GPIOPinByName("1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, samePin, test.ShouldEqual, pin)

	test.That(t, b.Close(context.Background()), test.ShouldBeNil)
	test.That(t, b.CloseCount, test.ShouldEqual, 1)
}

func TestConfigValidate(t *testing.T) {
	conf := Config{}
	_, err := conf.Validate("path")
	test.That(t, err, test.ShouldBeNil)

	conf.Chip = &ChipConfig{}
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "path.chip")
	test.That(t, err.Error(), test.ShouldContainSubstring, "model")

	conf.Chip = chipConfig()
	conf.Chip.Model = "93c47"
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "93c47")

	conf.Chip = chipConfig()
	conf.Chip.Organization = 12
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)

	conf.Chip = chipConfig()
	conf.Chip.DataOut = ""
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "data_out")

	conf.Chip = chipConfig()
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldBeNil)

	conf.FailNew = true
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRegisteredBoard(t *testing.T) {
	logger := logging.NewTestLogger(t)
	test.That(t, board.RegisteredModels(), test.ShouldContain, Model)

	b, err := board.NewBoard(context.Background(), board.Config{
		Model: Model,
		Attributes: utils.AttributeMap{
			"chip": map[string]interface{}{
				"model":        "93C86",
				"organization": float64(16),
				"chip_select":  "10",
				"clock":        "14",
				"data_in":      "12",
				"data_out":     "13",
			},
		},
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	fakeBoard, ok := b.(*Board)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, fakeBoard.Chip, test.ShouldNotBeNil)
	test.That(t, fakeBoard.Chip.Words(), test.ShouldEqual, 1024)

	_, err = board.NewBoard(context.Background(), board.Config{
		Model:      Model,
		Attributes: utils.AttributeMap{"fail_new": true},
	}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = board.NewBoard(context.Background(), board.Config{Model: "nope"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nope")
}

func TestLookupGeometry(t *testing.T) {
	for _, tc := range []struct {
		model        string
		organization int
		words        int
		addressBits  int
	}{
		{"93C46", 8, 128, 7},
		{"93c46", 16, 64, 6},
		{"c56", 8, 256, 9},
		{"66", 16, 256, 8},
		{"93C76", 8, 1024, 11},
		{"93C86", 16, 1024, 10},
	} {
		geo, err := lookupGeometry(tc.model, tc.organization)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, geo.words, test.ShouldEqual, tc.words)
		test.That(t, geo.addressBits, test.ShouldEqual, tc.addressBits)
	}
	_, err := lookupGeometry("24c02", 8)
	test.That(t, err, test.ShouldNotBeNil)
}

// pinBus clocks raw bits into a simulated chip through the fake board's pins.
type pinBus struct {
	t              *testing.T
	cs, sk, di, do board.GPIOPin
}

func newPinBus(t *testing.T, b *Board) *pinBus {
	t.Helper()
	pins := make([]board.GPIOPin, 4)
	for i, name := range []string{"cs", "sk", "di", "do"} {
		pin, err := b.GPIOPinByName(name)
		test.That(t, err, test.ShouldBeNil)
		pins[i] = pin
	}
	return &pinBus{t, pins[0], pins[1], pins[2], pins[3]}
}

func (pb *pinBus) set(pin board.GPIOPin, high bool) {
	test.That(pb.t, pin.Set(context.Background(), high, nil), test.ShouldBeNil)
}

func (pb *pinBus) get() bool {
	high, err := pb.do.Get(context.Background(), nil)
	test.That(pb.t, err, test.ShouldBeNil)
	return high
}

func (pb *pinBus) send(value uint32, length int) {
	for i := length - 1; i >= 0; i-- {
		pb.set(pb.di, value>>uint(i)&1 == 1)
		pb.set(pb.sk, true)
		pb.set(pb.sk, false)
	}
}

func (pb *pinBus) receive(length int) uint16 {
	var out uint16
	for i := length - 1; i >= 0; i-- {
		pb.set(pb.sk, true)
		if pb.get() {
			out |= 1 << uint(i)
		}
		pb.set(pb.sk, false)
	}
	return out
}

// transaction sends the start bit and a 9 bit frame (93C46, 8-bit organization).
func (pb *pinBus) transaction(frame uint32, payload func()) {
	pb.set(pb.cs, true)
	pb.send(1, 1)
	pb.send(frame, 9)
	if payload != nil {
		payload()
	}
	pb.set(pb.cs, false)
}

func (pb *pinBus) waitReady() int {
	pb.set(pb.cs, true)
	defer pb.set(pb.cs, false)
	for polls := 1; polls < 100; polls++ {
		if pb.get() {
			return polls
		}
	}
	pb.t.Fatal("chip never became ready")
	return 0
}

func TestSimulatedChip(t *testing.T) {
	logger := logging.NewTestLogger(t)
	conf := chipConfig()
	conf.BusyPolls = 2
	b, err := NewBoard(context.Background(), &Config{Chip: conf}, logger)
	test.That(t, err, test.ShouldBeNil)
	chip := b.Chip
	bus := newPinBus(t, b)

	test.That(t, chip.Word(5), test.ShouldEqual, 0xFF)

	// write while the latch is off is decoded but not applied
	bus.transaction(0b01_0000101, func() { bus.send(0x42, 8) })
	test.That(t, bus.waitReady(), test.ShouldEqual, 3)
	test.That(t, chip.Word(5), test.ShouldEqual, 0xFF)

	// EWEN
	bus.transaction(0b00_1100000, nil)
	test.That(t, chip.WriteEnabled(), test.ShouldBeTrue)

	bus.transaction(0b01_0000101, func() { bus.send(0x42, 8) })
	bus.waitReady()
	test.That(t, chip.Word(5), test.ShouldEqual, 0x42)

	var read uint16
	bus.transaction(0b10_0000101, func() { read = bus.receive(8) })
	test.That(t, read, test.ShouldEqual, 0x42)

	// ERASE
	bus.transaction(0b11_0000101, nil)
	bus.waitReady()
	test.That(t, chip.Word(5), test.ShouldEqual, 0xFF)

	// WRAL then ERAL
	bus.transaction(0b00_0100000, func() { bus.send(0x00, 8) })
	bus.waitReady()
	for addr := 0; addr < chip.Words(); addr++ {
		test.That(t, chip.Word(addr), test.ShouldEqual, 0)
	}
	bus.transaction(0b00_1000000, nil)
	bus.waitReady()
	test.That(t, chip.Word(127), test.ShouldEqual, 0xFF)

	// EWDS
	bus.transaction(0b00_0000000, nil)
	test.That(t, chip.WriteEnabled(), test.ShouldBeFalse)

	ops := []string{}
	for _, cmd := range chip.Commands() {
		ops = append(ops, cmd.Op)
	}
	test.That(t, ops, test.ShouldResemble,
		[]string{"WRITE", "EWEN", "WRITE", "READ", "ERASE", "WRAL", "ERAL", "EWDS"})
	test.That(t, chip.Commands()[0].Applied, test.ShouldBeFalse)
	test.That(t, chip.Commands()[2].Applied, test.ShouldBeTrue)
}
