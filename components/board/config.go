package board

import (
	goutils "go.viam.com/utils"

	"go.viam.com/eeprom93cx6/utils"
)

// Config selects a registered board model and carries its model-specific attributes.
type Config struct {
	Model      string             `json:"model"`
	Attributes utils.AttributeMap `json:"attributes,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *Config) Validate(path string) ([]string, error) {
	if config.Model == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError(path, "model")
	}
	return nil, nil
}
