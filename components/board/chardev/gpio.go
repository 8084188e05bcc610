package chardev

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/chardev/components/board"
	"go.viam.com/chardev/sys"
)

var (
	_ = board.OutputPin(&GPIOOutput{})
	_ = board.InputPin(&GPIOInput{})
	_ = board.InputPin(&GPIOInterrupt{})
)

// GPIOOutput is a GPIO line opened for driving.
type GPIOOutput struct {
	handle
	cmd sys.IoctlCmd
}

// OpenGPIOOutput opens the GPIO line at path as an output.
func (o *Opener) OpenGPIOOutput(path string) (*GPIOOutput, error) {
	h, err := o.open(RoleGPIOOutput, path)
	if err != nil {
		return nil, err
	}
	return &GPIOOutput{handle: h, cmd: o.Codes.Write}, nil
}

// Set drives the line with a single write ioctl whose argument is 1 for High and 0 for Low.
func (p *GPIOOutput) Set(level gpio.Level) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	var arg uintptr
	if level == gpio.High {
		arg = 1
	}
	if err := p.os.Ioctl(p.fd, p.cmd, arg); err != nil {
		return errors.Wrapf(err, "setting %q %s", p.path.String(), level)
	}
	return nil
}

// SetHigh drives the line High.
func (p *GPIOOutput) SetHigh() error { return p.Set(gpio.High) }

// SetLow drives the line Low.
func (p *GPIOOutput) SetLow() error { return p.Set(gpio.Low) }

// sampler reads a line with the read ioctl. Inputs and interrupt lines share it.
type sampler struct {
	handle
	cmd sys.IoctlCmd
}

// Read samples the line. Any nonzero value the driver reports is High.
func (p *sampler) Read() (gpio.Level, error) {
	if err := p.checkOpen(); err != nil {
		return gpio.Low, err
	}
	var value int32
	if err := p.os.IoctlOut(p.fd, p.cmd, &value); err != nil {
		return gpio.Low, errors.Wrapf(err, "reading %q", p.path.String())
	}
	return gpio.Level(value != 0), nil
}

// IsHigh reports whether the line reads High.
func (p *sampler) IsHigh() (bool, error) {
	return board.IsHigh(p)
}

// IsLow reports whether the line reads Low.
func (p *sampler) IsLow() (bool, error) {
	return board.IsLow(p)
}

// GPIOInput is a GPIO line opened for sampling.
type GPIOInput struct {
	sampler
}

// OpenGPIOInput opens the GPIO line at path as an input.
func (o *Opener) OpenGPIOInput(path string) (*GPIOInput, error) {
	h, err := o.open(RoleGPIOInput, path)
	if err != nil {
		return nil, err
	}
	return &GPIOInput{sampler{handle: h, cmd: o.Codes.Read}}, nil
}

// GPIOInterrupt is a GPIO line configured by the driver as an interrupt source. It is sampled
// like an input; event registration is left to the driver's own commands.
type GPIOInterrupt struct {
	sampler
}

// OpenGPIOInterrupt opens the interrupt line at path.
func (o *Opener) OpenGPIOInterrupt(path string) (*GPIOInterrupt, error) {
	h, err := o.open(RoleGPIOInterrupt, path)
	if err != nil {
		return nil, err
	}
	return &GPIOInterrupt{sampler{handle: h, cmd: o.Codes.Read}}, nil
}
