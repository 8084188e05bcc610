// Package config defines how a peripheral setup is described on disk: which device nodes back
// the SPI bus and each GPIO line, plus logging settings.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"

	"go.viam.com/chardev/components/board"
	"go.viam.com/chardev/components/board/chardev"
	"go.viam.com/chardev/logging"
	"go.viam.com/chardev/sys"
)

// A Config describes the device nodes of one SPI register peripheral and its control lines.
type Config struct {
	SPI        board.SPIConfig `json:"spi"`
	ChipSelect board.PinConfig `json:"chip_select"`
	Reset      board.PinConfig `json:"reset,omitempty"`
	Busy       board.PinConfig `json:"busy,omitempty"`
	DIO1       board.PinConfig `json:"dio1,omitempty"`
	Antenna    board.PinConfig `json:"antenna,omitempty"`

	Ioctl *IoctlConfig `json:"ioctl,omitempty"`

	LogLevel  string                        `json:"log_level,omitempty"`
	LogConfig []logging.LoggerPatternConfig `json:"log,omitempty"`
	// LogFile, when set, receives a copy of every log line.
	LogFile string `json:"log_file,omitempty"`

	ConfigFilePath string `json:"-"`
}

// IoctlConfig overrides the GPIO command codes for hosts whose driver numbers them differently.
type IoctlConfig struct {
	GPIOWrite int32 `json:"gpio_write"`
	GPIORead  int32 `json:"gpio_read"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if err := conf.SPI.Validate(fmt.Sprintf("%s.%s", path, "spi")); err != nil {
		return err
	}
	if err := conf.ChipSelect.Validate(fmt.Sprintf("%s.%s", path, "chip_select"), true); err != nil {
		return err
	}
	for name, pin := range conf.optionalPins() {
		if err := pin.Validate(fmt.Sprintf("%s.%s", path, name), false); err != nil {
			return err
		}
	}

	// Each descriptor has a single owner, so no two peripherals may share a device node.
	if dups := lo.FindDuplicates(conf.DevicePaths()); len(dups) != 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("device path %q is assigned to more than one peripheral", dups[0]))
	}
	for _, p := range conf.DevicePaths() {
		if _, err := sys.NewDevicePath(p); err != nil {
			return utils.NewConfigValidationError(path, errors.Wrapf(err, "device path %q", p))
		}
	}

	if conf.Ioctl != nil {
		if conf.Ioctl.GPIOWrite == 0 || conf.Ioctl.GPIORead == 0 {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "ioctl"),
				errors.New("gpio_write and gpio_read must both be set"))
		}
		if conf.Ioctl.GPIOWrite == conf.Ioctl.GPIORead {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "ioctl"),
				errors.New("gpio_write and gpio_read must differ"))
		}
	}

	if conf.LogLevel != "" {
		if _, err := logging.LevelFromString(conf.LogLevel); err != nil {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "log_level"), err)
		}
	}
	for idx, lpc := range conf.LogConfig {
		if err := lpc.Validate(); err != nil {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.%s.%d", path, "log", idx), err)
		}
	}
	return nil
}

func (conf *Config) optionalPins() map[string]board.PinConfig {
	return map[string]board.PinConfig{
		"reset":   conf.Reset,
		"busy":    conf.Busy,
		"dio1":    conf.DIO1,
		"antenna": conf.Antenna,
	}
}

// DevicePaths returns every configured device path, SPI bus first.
func (conf *Config) DevicePaths() []string {
	paths := []string{conf.SPI.Path, conf.ChipSelect.Path}
	for _, pin := range []board.PinConfig{conf.Reset, conf.Busy, conf.DIO1, conf.Antenna} {
		if pin.Wired() {
			paths = append(paths, pin.Path)
		}
	}
	return lo.Compact(paths)
}

// IoctlCodes returns the GPIO command codes to use.
func (conf *Config) IoctlCodes() chardev.IoctlCodes {
	if conf.Ioctl == nil {
		return chardev.DefaultIoctlCodes
	}
	return chardev.IoctlCodes{
		Write: sys.IoctlCmd(conf.Ioctl.GPIOWrite),
		Read:  sys.IoctlCmd(conf.Ioctl.GPIORead),
	}
}

// Level returns the configured log level, Info when unset.
func (conf *Config) Level() logging.Level {
	level, err := logging.LevelFromString(conf.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}
