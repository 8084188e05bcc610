package board

import (
	"go.viam.com/utils"
)

// SPIConfig names the character device of an SPI bus.
type SPIConfig struct {
	Path string `json:"path"`
	// SettleUs is an optional pause after each transaction, once chip select is released.
	SettleUs uint32 `json:"settle_us,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *SPIConfig) Validate(path string) error {
	if config.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "path")
	}
	return nil
}

// PinConfig names the character device of a single GPIO line. An empty path means the line is
// not wired, and an unused pin stands in for it.
type PinConfig struct {
	Path string `json:"path,omitempty"`
}

// Wired reports whether the pin has a device behind it.
func (config PinConfig) Wired() bool {
	return config.Path != ""
}

// Validate ensures all parts of the config are valid. Required pins must have a path.
func (config *PinConfig) Validate(path string, required bool) error {
	if required && config.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "path")
	}
	return nil
}
