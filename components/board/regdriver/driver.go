// Package regdriver acquires the device nodes of an SPI register peripheral, runs register
// transactions against it and releases everything it acquired on every way out.
package regdriver

import (
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/chardev/components/board"
	"go.viam.com/chardev/components/board/chardev"
	"go.viam.com/chardev/components/board/spiregister"
	"go.viam.com/chardev/config"
	"go.viam.com/chardev/logging"
	"go.viam.com/chardev/sys"
)

// Reset timing. The reset line is held low for resetPulseUs, then the busy line is polled every
// busyPollUs for at most maxBusyPolls samples.
const (
	resetPulseUs = 200
	busyPollUs   = 100
	maxBusyPolls = 100
)

// ErrBusy is returned when the busy line does not drop within maxBusyPolls samples.
var ErrBusy = errors.New("peripheral stayed busy")

// Option configures a Driver.
type Option func(*Driver)

// WithClock sets the clock used to time transactions.
func WithClock(clk clock.Clock) Option {
	return func(d *Driver) { d.clk = clk }
}

// A Driver owns the handles of one peripheral. It is single threaded: callers must not use it
// from more than one goroutine.
type Driver struct {
	bus     board.Transferer
	cs      board.OutputPin
	reset   board.OutputPin
	busy    board.InputPin
	dio1    board.InputPin
	antenna board.OutputPin

	delay      board.Delayer
	transactor *spiregister.Transactor
	clk        clock.Clock
	logger     logging.Logger

	// Handles in acquisition order; released in reverse.
	owned  []io.Closer
	closed bool
}

// Open acquires the SPI bus, chip select and every wired optional line named by conf. Lines
// that are not configured are served by chardev.UnusedPin. If any acquisition fails, all
// handles acquired so far are closed before the error is returned.
func Open(os sys.Interface, conf *config.Config, logger logging.Logger, opts ...Option) (_ *Driver, err error) {
	opener := chardev.NewOpener(os, logger)
	opener.Codes = conf.IoctlCodes()

	d := &Driver{
		delay:  chardev.NewDelay(os),
		clk:    clock.New(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	acquired := false
	defer func() {
		// Also runs while a panic unwinds.
		if !acquired {
			err = multierr.Combine(err, d.release())
		}
	}()

	bus, err := opener.OpenSPIBus(conf.SPI.Path)
	if err != nil {
		return nil, err
	}
	d.own(bus)
	d.bus = bus

	cs, err := opener.OpenGPIOOutput(conf.ChipSelect.Path)
	if err != nil {
		return nil, err
	}
	d.own(cs)
	d.cs = cs

	if d.reset, err = d.openOutput(opener, conf.Reset); err != nil {
		return nil, err
	}
	if d.antenna, err = d.openOutput(opener, conf.Antenna); err != nil {
		return nil, err
	}
	if d.busy, err = d.openInput(opener, conf.Busy); err != nil {
		return nil, err
	}
	if conf.DIO1.Wired() {
		dio1, err := opener.OpenGPIOInterrupt(conf.DIO1.Path)
		if err != nil {
			return nil, err
		}
		d.own(dio1)
		d.dio1 = dio1
	} else {
		d.dio1 = chardev.UnusedPin{}
	}

	d.transactor = spiregister.NewTransactor(bus, cs, d.delay, logger.Sublogger("spi"))
	d.transactor.SettleUs = conf.SPI.SettleUs
	logger.Debugw("peripheral acquired", "handles", len(d.owned))
	acquired = true
	return d, nil
}

func (d *Driver) own(c io.Closer) {
	d.owned = append(d.owned, c)
}

func (d *Driver) openOutput(opener *chardev.Opener, pin board.PinConfig) (board.OutputPin, error) {
	if !pin.Wired() {
		return chardev.UnusedPin{}, nil
	}
	out, err := opener.OpenGPIOOutput(pin.Path)
	if err != nil {
		return nil, err
	}
	d.own(out)
	return out, nil
}

func (d *Driver) openInput(opener *chardev.Opener, pin board.PinConfig) (board.InputPin, error) {
	if !pin.Wired() {
		return chardev.UnusedPin{}, nil
	}
	in, err := opener.OpenGPIOInput(pin.Path)
	if err != nil {
		return nil, err
	}
	d.own(in)
	return in, nil
}

func (d *Driver) release() error {
	var err error
	for i := len(d.owned) - 1; i >= 0; i-- {
		err = multierr.Combine(err, d.owned[i].Close())
	}
	d.owned = nil
	return err
}

// Close releases every handle. Only the first call has any effect.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.release()
}

// Session opens a Driver, hands it to fn and closes it whatever fn does, including panicking.
func Session(os sys.Interface, conf *config.Config, logger logging.Logger, fn func(*Driver) error, opts ...Option) (err error) {
	d, err := Open(os, conf, logger, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, d.Close())
	}()
	return fn(d)
}

// ReadRegister reads one register once the peripheral is ready.
func (d *Driver) ReadRegister(addr uint16) (byte, error) {
	if err := d.waitReady(); err != nil {
		return 0, err
	}
	return d.transactor.ReadRegister(addr)
}

// ReadRegisters reads n consecutive registers once the peripheral is ready.
func (d *Driver) ReadRegisters(addr uint16, n int) ([]byte, error) {
	if err := d.waitReady(); err != nil {
		return nil, err
	}
	return d.transactor.ReadRegisters(addr, n)
}

// WriteRegister writes one register once the peripheral is ready.
func (d *Driver) WriteRegister(addr uint16, value byte) error {
	if err := d.waitReady(); err != nil {
		return err
	}
	return d.transactor.WriteRegister(addr, value)
}

// WriteRegisters writes data to consecutive registers once the peripheral is ready.
func (d *Driver) WriteRegisters(addr uint16, data []byte) error {
	if err := d.waitReady(); err != nil {
		return err
	}
	return d.transactor.WriteRegisters(addr, data)
}

// Reset pulses the reset line low and waits for the busy line to drop. Without a wired reset or
// busy line the corresponding step does nothing.
func (d *Driver) Reset() error {
	if err := d.reset.Set(gpio.Low); err != nil {
		return errors.Wrap(err, "asserting reset")
	}
	d.delay.DelayUs(resetPulseUs)
	if err := d.reset.Set(gpio.High); err != nil {
		return errors.Wrap(err, "releasing reset")
	}
	d.delay.DelayMs(1)
	return d.waitReady()
}

// waitReady polls the busy line until it reads Low.
func (d *Driver) waitReady() error {
	for i := 0; i < maxBusyPolls; i++ {
		busy, err := board.IsHigh(d.busy)
		if err != nil {
			return errors.Wrap(err, "reading busy line")
		}
		if !busy {
			return nil
		}
		d.delay.DelayUs(busyPollUs)
	}
	d.logger.Warnw("busy line did not drop", "polls", maxBusyPolls, "poll_us", busyPollUs)
	return errors.Wrapf(ErrBusy, "after %d polls", maxBusyPolls)
}

// Status is a snapshot of the control lines.
type Status struct {
	Busy bool
	IRQ  bool
}

// Status samples the busy and dio1 lines. Unwired lines read Low.
func (d *Driver) Status() (Status, error) {
	busy, err := board.IsHigh(d.busy)
	if err != nil {
		return Status{}, errors.Wrap(err, "reading busy line")
	}
	irq, err := board.IsHigh(d.dio1)
	if err != nil {
		return Status{}, errors.Wrap(err, "reading dio1 line")
	}
	return Status{Busy: busy, IRQ: irq}, nil
}

// elapsed runs fn and returns how long it took on the driver's clock.
func (d *Driver) elapsed(fn func() error) (time.Duration, error) {
	start := d.clk.Now()
	err := fn()
	return d.clk.Since(start), err
}
