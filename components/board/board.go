// Package board defines the capabilities application code uses to drive peripherals: a full
// duplex SPI bus, output pins, input pins and a delay source. Implementations live in
// subpackages; chardev backs them with character device nodes.
package board

import (
	"periph.io/x/conn/v3/gpio"
)

// A Transferer exchanges bytes with a device over a full duplex bus.
type Transferer interface {
	// Transfer sends buf and overwrites it in place with the bytes received, so the response
	// always has the same length as the request. A short transfer is an error, never a partial
	// result.
	Transfer(buf []byte) error
}

// An OutputPin drives a digital line.
type OutputPin interface {
	Set(level gpio.Level) error
}

// An InputPin samples a digital line.
type InputPin interface {
	Read() (gpio.Level, error)
}

// A Delayer blocks the caller for a duration. It cannot fail.
type Delayer interface {
	DelayUs(us uint32)
	DelayMs(ms uint32)
}

// IsHigh reports whether pin currently reads High.
func IsHigh(pin InputPin) (bool, error) {
	level, err := pin.Read()
	if err != nil {
		return false, err
	}
	return level == gpio.High, nil
}

// IsLow is the negation of IsHigh.
func IsLow(pin InputPin) (bool, error) {
	high, err := IsHigh(pin)
	if err != nil {
		return false, err
	}
	return !high, nil
}
