package eeprom

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Config describes one chip and the board pins it is wired to.
type Config struct {
	Model        string       `json:"model"`
	Organization int          `json:"organization"`
	Pins         PinConfig    `json:"pins"`
	Timing       TimingConfig `json:"timing,omitempty"`
}

// PinConfig names the four bus lines on the board.
type PinConfig struct {
	ChipSelect string `json:"chip_select"`
	Clock      string `json:"clock"`
	DataIn     string `json:"data_in"`
	DataOut    string `json:"data_out"`
}

// TimingConfig overrides the default bus timing. Unset fields keep their default.
type TimingConfig struct {
	ChipSelectMicros   *int `json:"chip_select_us,omitempty"`
	SettleMicros       *int `json:"settle_us,omitempty"`
	ReadMicros         *int `json:"read_us,omitempty"`
	PollIntervalMicros *int `json:"poll_interval_us,omitempty"`
	// ReadyTimeoutMillis of zero waits for the chip forever.
	ReadyTimeoutMillis *int `json:"ready_timeout_ms,omitempty"`
}

// Timing holds every delay the bus protocol uses.
type Timing struct {
	// ChipSelect is waited after raising chip select, before the start bit.
	ChipSelect time.Duration
	// Settle is waited after setting data in and after each clock edge while transmitting.
	Settle time.Duration
	// Read is waited after each clock edge while receiving.
	Read time.Duration
	// PollInterval is waited between samples of data out while the chip is busy.
	PollInterval time.Duration
	// ReadyTimeout bounds the busy wait. Zero means no bound.
	ReadyTimeout time.Duration
}

// DefaultTiming is fast enough for every speed grade of the family at 5V and 2.7V.
func DefaultTiming() Timing {
	return Timing{
		ChipSelect:   0,
		Settle:       time.Microsecond,
		Read:         time.Microsecond,
		PollInterval: time.Microsecond,
		ReadyTimeout: 100 * time.Millisecond,
	}
}

// Timing returns the defaults with every configured field applied.
func (tc TimingConfig) Timing() Timing {
	t := DefaultTiming()
	if tc.ChipSelectMicros != nil {
		t.ChipSelect = time.Duration(*tc.ChipSelectMicros) * time.Microsecond
	}
	if tc.SettleMicros != nil {
		t.Settle = time.Duration(*tc.SettleMicros) * time.Microsecond
	}
	if tc.ReadMicros != nil {
		t.Read = time.Duration(*tc.ReadMicros) * time.Microsecond
	}
	if tc.PollIntervalMicros != nil {
		t.PollInterval = time.Duration(*tc.PollIntervalMicros) * time.Microsecond
	}
	if tc.ReadyTimeoutMillis != nil {
		t.ReadyTimeout = time.Duration(*tc.ReadyTimeoutMillis) * time.Millisecond
	}
	return t
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	if conf.Model == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if _, err := ParseModel(conf.Model); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	if conf.Organization == 0 {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "organization")
	}
	if _, err := ParseOrganization(conf.Organization); err != nil {
		return nil, goutils.NewConfigValidationError(path, err)
	}
	if err := conf.Pins.Validate(fmt.Sprintf("%s.%s", path, "pins")); err != nil {
		return nil, err
	}
	if err := conf.Timing.Validate(fmt.Sprintf("%s.%s", path, "timing")); err != nil {
		return nil, err
	}
	return nil, nil
}

// Validate ensures every line is named and no line is used twice.
func (pc *PinConfig) Validate(path string) error {
	names := []struct {
		field, pin string
	}{
		{"chip_select", pc.ChipSelect},
		{"clock", pc.Clock},
		{"data_in", pc.DataIn},
		{"data_out", pc.DataOut},
	}
	seen := map[string]string{}
	for _, n := range names {
		if n.pin == "" {
			return goutils.NewConfigValidationFieldRequiredError(path, n.field)
		}
		if other, ok := seen[n.pin]; ok {
			return goutils.NewConfigValidationError(path,
				errors.Errorf("pin %q is used for both %s and %s", n.pin, other, n.field))
		}
		seen[n.pin] = n.field
	}
	return nil
}

// Validate rejects negative delays.
func (tc *TimingConfig) Validate(path string) error {
	for field, value := range map[string]*int{
		"chip_select_us":   tc.ChipSelectMicros,
		"settle_us":        tc.SettleMicros,
		"read_us":          tc.ReadMicros,
		"poll_interval_us": tc.PollIntervalMicros,
		"ready_timeout_ms": tc.ReadyTimeoutMillis,
	} {
		if value != nil && *value < 0 {
			return goutils.NewConfigValidationError(path, errors.Errorf("%s cannot be negative", field))
		}
	}
	return nil
}

// Profile parses the model and organization and resolves their profile.
func (conf *Config) Profile() (Profile, error) {
	model, err := ParseModel(conf.Model)
	if err != nil {
		return Profile{}, err
	}
	org, err := ParseOrganization(conf.Organization)
	if err != nil {
		return Profile{}, err
	}
	return ResolveProfile(model, org)
}
