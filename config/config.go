// Package config defines the on-disk configuration of the eeprom tool: which board to open and
// which chip is wired to it.
package config

import (
	"go.viam.com/eeprom93cx6/components/board"
	"go.viam.com/eeprom93cx6/components/eeprom"
)

// A Config describes one chip and the board it hangs off.
type Config struct {
	ConfigFilePath string        `json:"-"`
	Board          board.Config  `json:"board"`
	EEPROM         eeprom.Config `json:"eeprom"`
}

// Ensure validates every section. Paths in returned errors follow the JSON layout.
func (c *Config) Ensure() error {
	if _, err := c.Board.Validate("board"); err != nil {
		return err
	}
	if _, err := c.EEPROM.Validate("eeprom"); err != nil {
		return err
	}
	return nil
}
