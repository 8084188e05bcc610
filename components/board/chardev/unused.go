package chardev

import (
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/chardev/components/board"
)

var (
	_ = board.OutputPin(UnusedPin{})
	_ = board.InputPin(UnusedPin{})
	_ = board.Transferer(UnusedPin{})
)

// UnusedPin stands in for a line that is not wired. Every operation succeeds without touching
// the OS, and it reads Low.
type UnusedPin struct{}

// Set does nothing.
func (UnusedPin) Set(gpio.Level) error { return nil }

// Read always returns Low.
func (UnusedPin) Read() (gpio.Level, error) { return gpio.Low, nil }

// IsHigh is always false.
func (UnusedPin) IsHigh() (bool, error) { return false, nil }

// IsLow is always true.
func (UnusedPin) IsLow() (bool, error) { return true, nil }

// Transfer leaves buf as is.
func (UnusedPin) Transfer([]byte) error { return nil }

// Close does nothing.
func (UnusedPin) Close() error { return nil }

func (UnusedPin) String() string { return "unused" }
