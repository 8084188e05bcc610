package inject

import (
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/chardev/components/board"
)

// OutputPin is an injected output pin.
type OutputPin struct {
	board.OutputPin
	SetFunc func(level gpio.Level) error
	setCap  []gpio.Level
}

// Set calls the injected Set or the real version.
func (p *OutputPin) Set(level gpio.Level) error {
	p.setCap = append(p.setCap, level)
	if p.SetFunc == nil {
		return p.OutputPin.Set(level)
	}
	return p.SetFunc(level)
}

// SetCap returns the levels received by Set, and then clears them.
func (p *OutputPin) SetCap() []gpio.Level {
	if p == nil {
		return nil
	}
	defer func() { p.setCap = nil }()
	return p.setCap
}

// InputPin is an injected input pin.
type InputPin struct {
	board.InputPin
	ReadFunc func() (gpio.Level, error)
}

// Read calls the injected Read or the real version.
func (p *InputPin) Read() (gpio.Level, error) {
	if p.ReadFunc == nil {
		return p.InputPin.Read()
	}
	return p.ReadFunc()
}

// Delayer is an injected delay source that records instead of sleeping.
type Delayer struct {
	board.Delayer
	DelayUsFunc func(us uint32)
	delayCap    []uint32
}

// DelayUs calls the injected DelayUs or the real version.
func (d *Delayer) DelayUs(us uint32) {
	d.delayCap = append(d.delayCap, us)
	if d.DelayUsFunc == nil {
		if d.Delayer != nil {
			d.Delayer.DelayUs(us)
		}
		return
	}
	d.DelayUsFunc(us)
}

// DelayMs is DelayUs(ms * 1000).
func (d *Delayer) DelayMs(ms uint32) {
	d.DelayUs(ms * 1000)
}

// DelayCap returns the microsecond durations requested so far, and then clears them.
func (d *Delayer) DelayCap() []uint32 {
	if d == nil {
		return nil
	}
	defer func() { d.delayCap = nil }()
	return d.delayCap
}
