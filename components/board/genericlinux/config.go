package genericlinux

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// DefaultGPIOChip is the character device used when none is configured.
const DefaultGPIOChip = "/dev/gpiochip0"

// A Config describes the GPIO chip device and, optionally, names for its lines.
type Config struct {
	GPIOChip string `json:"gpio_chip,omitempty"`
	// Pins maps pin names to line offsets on the chip. Names not listed here are parsed as
	// offsets.
	Pins map[string]int `json:"pins,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	for name, offset := range conf.Pins {
		if name == "" {
			return nil, goutils.NewConfigValidationError(path, errors.New("pin names cannot be empty"))
		}
		if offset < 0 {
			return nil, goutils.NewConfigValidationError(
				fmt.Sprintf("%s.%s", path, "pins"),
				errors.Errorf("pin %q has negative line offset %d", name, offset))
		}
	}
	return nil, nil
}

func (conf *Config) chipPath() string {
	if conf.GPIOChip == "" {
		return DefaultGPIOChip
	}
	return conf.GPIOChip
}

// lineOffset resolves a pin name to a line offset on the chip.
func (conf *Config) lineOffset(name string) (uint32, error) {
	if offset, ok := conf.Pins[name]; ok {
		return uint32(offset), nil
	}
	offset, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid pin %q: not a configured name or a line offset", name)
	}
	return uint32(offset), nil
}
