package fake

import (
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// geometry of a chip in 8-bit organization. The 16-bit organization has half the words and one
// address bit less.
type geometry struct {
	words       int
	addressBits int
}

var geometries = map[int]geometry{
	46: {128, 7},
	56: {256, 9},
	66: {512, 9},
	76: {1024, 11},
	86: {2048, 11},
}

func lookupGeometry(model string, organization int) (geometry, error) {
	digits := strings.TrimPrefix(strings.ToLower(model), "93")
	digits = strings.TrimPrefix(digits, "c")
	number, err := strconv.Atoi(digits)
	if err != nil {
		return geometry{}, errors.Errorf("unknown chip model %q", model)
	}
	geo, ok := geometries[number]
	if !ok {
		return geometry{}, errors.Errorf("unknown chip model %q", model)
	}
	switch organization {
	case 8:
		return geo, nil
	case 16:
		return geometry{geo.words / 2, geo.addressBits - 1}, nil
	default:
		return geometry{}, errors.Errorf("organization must be 8 or 16, got %d", organization)
	}
}

type chipState int

const (
	chipIdle chipState = iota
	chipWaitStart
	chipCommand
	chipData
	chipReadOut
	chipDone
	chipStatus
)

// Command is one instruction the simulated chip decoded from the bus.
type Command struct {
	Op      string
	Address int
	Value   uint16
	// Applied is false when a write-class instruction arrived with the write-enable latch off.
	Applied bool
}

// A Chip simulates a 93Cx6 three-wire EEPROM at the pin level. Instructions are clocked in on
// rising clock edges while chip select is high; data out carries the dummy zero and the read
// word, or the ready status after a program/erase cycle.
type Chip struct {
	mu sync.Mutex

	addressBits int
	wordBits    int
	mem         []uint16

	writeEnabled bool
	busyPolls    int
	neverReady   bool

	cs, sk, di bool
	do         bool

	state   chipState
	shift   uint32
	count   int
	target  int
	outWord uint16
	outIdx  int

	cyclePending bool
	cycleActive  bool
	busyLeft     int

	commands []Command
}

// NewChip returns a simulated chip with every word in the erased (all ones) state.
func NewChip(model string, organization int) (*Chip, error) {
	geo, err := lookupGeometry(model, organization)
	if err != nil {
		return nil, err
	}
	c := &Chip{
		addressBits: geo.addressBits,
		wordBits:    organization,
		mem:         make([]uint16, geo.words),
	}
	for i := range c.mem {
		c.mem[i] = c.wordMask()
	}
	return c, nil
}

func (c *Chip) wordMask() uint16 {
	return uint16(1<<c.wordBits - 1)
}

func (c *Chip) setChipSelect(high bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if high == c.cs {
		return
	}
	c.cs = high

	if high {
		if c.cycleActive {
			c.state = chipStatus
			return
		}
		c.state = chipWaitStart
		return
	}

	switch c.state {
	case chipDone:
		if c.cyclePending {
			c.cyclePending = false
			c.cycleActive = true
			c.busyLeft = c.busyPolls
		}
	case chipStatus:
		if c.busyLeft == 0 && !c.neverReady {
			c.cycleActive = false
		}
	case chipIdle, chipWaitStart, chipCommand, chipData, chipReadOut:
	}
	c.state = chipIdle
	c.do = false
}

func (c *Chip) setDataIn(high bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.di = high
}

func (c *Chip) setClock(high bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rising := high && !c.sk
	c.sk = high
	if !rising || !c.cs {
		return
	}

	bit := uint32(0)
	if c.di {
		bit = 1
	}
	switch c.state {
	case chipWaitStart:
		// leading zeros before the start bit are ignored
		if c.di {
			c.state = chipCommand
			c.shift, c.count = 0, 0
		}
	case chipCommand:
		c.shift = c.shift<<1 | bit
		c.count++
		if c.count == c.addressBits+2 {
			c.decode()
		}
	case chipData:
		c.shift = c.shift<<1 | bit
		c.count++
		if c.count == c.wordBits {
			c.program(uint16(c.shift) & c.wordMask())
		}
	case chipReadOut:
		c.outIdx--
		if c.outIdx >= 0 {
			c.do = c.outWord>>uint(c.outIdx)&1 == 1
		} else {
			c.do = false
		}
	case chipIdle, chipDone, chipStatus:
	}
}

func (c *Chip) decode() {
	addressMask := uint32(1)<<c.addressBits - 1
	opcode := c.shift >> c.addressBits
	field := int(c.shift & addressMask)
	address := field % len(c.mem)

	switch opcode {
	case 0b10:
		c.commands = append(c.commands, Command{Op: "READ", Address: address, Value: c.mem[address], Applied: true})
		c.state = chipReadOut
		c.outWord = c.mem[address]
		c.outIdx = c.wordBits
		c.do = false
	case 0b01:
		c.state = chipData
		c.target = address
		c.shift, c.count = 0, 0
	case 0b11:
		if c.writeEnabled {
			c.mem[address] = c.wordMask()
		}
		c.commands = append(c.commands, Command{Op: "ERASE", Address: address, Applied: c.writeEnabled})
		c.finishCycle()
	default:
		switch field >> (c.addressBits - 2) {
		case 0b11:
			c.writeEnabled = true
			c.commands = append(c.commands, Command{Op: "EWEN", Applied: true})
			c.state = chipDone
		case 0b00:
			c.writeEnabled = false
			c.commands = append(c.commands, Command{Op: "EWDS", Applied: true})
			c.state = chipDone
		case 0b10:
			if c.writeEnabled {
				for i := range c.mem {
					c.mem[i] = c.wordMask()
				}
			}
			c.commands = append(c.commands, Command{Op: "ERAL", Applied: c.writeEnabled})
			c.finishCycle()
		default:
			c.state = chipData
			c.target = -1
			c.shift, c.count = 0, 0
		}
	}
}

func (c *Chip) program(value uint16) {
	if c.target < 0 {
		if c.writeEnabled {
			for i := range c.mem {
				c.mem[i] = value
			}
		}
		c.commands = append(c.commands, Command{Op: "WRAL", Value: value, Applied: c.writeEnabled})
	} else {
		if c.writeEnabled {
			c.mem[c.target] = value
		}
		c.commands = append(c.commands, Command{Op: "WRITE", Address: c.target, Value: value, Applied: c.writeEnabled})
	}
	c.finishCycle()
}

func (c *Chip) finishCycle() {
	c.state = chipDone
	c.cyclePending = true
}

// dataOut is the level the chip drives on its data out line.
func (c *Chip) dataOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != chipStatus {
		return c.do
	}
	if c.neverReady {
		return false
	}
	if c.busyLeft > 0 {
		c.busyLeft--
		return false
	}
	return true
}

// Word returns the stored word at address.
func (c *Chip) Word(address int) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem[address%len(c.mem)]
}

// SetWord stores a word directly, bypassing the bus.
func (c *Chip) SetWord(address int, value uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[address%len(c.mem)] = value & c.wordMask()
}

// Words returns how many words the chip stores.
func (c *Chip) Words() int {
	return len(c.mem)
}

// WriteEnabled returns the state of the write-enable latch.
func (c *Chip) WriteEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeEnabled
}

// Commands returns every instruction decoded so far.
func (c *Chip) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Command(nil), c.commands...)
}

// SetNeverReady makes the chip report busy forever after its next program/erase cycle.
func (c *Chip) SetNeverReady(neverReady bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.neverReady = neverReady
}
