package spiregister

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/chardev/components/board"
	"go.viam.com/chardev/logging"
)

// A Transactor runs register transactions over one bus and chip select line. It is not safe for
// concurrent use; nothing else may drive the bus or the line while it does.
type Transactor struct {
	bus    board.Transferer
	cs     board.OutputPin
	delay  board.Delayer
	logger logging.Logger

	// SettleUs, when nonzero, is slept after chip select is released.
	SettleUs uint32
}

// NewTransactor returns a Transactor. delay may be nil when no settle time is needed.
func NewTransactor(
	bus board.Transferer,
	cs board.OutputPin,
	delay board.Delayer,
	logger logging.Logger,
) *Transactor {
	return &Transactor{bus: bus, cs: cs, delay: delay, logger: logger}
}

// Exchange runs one transaction: chip select low, transfer frame in place, hand the response to
// collect (which may be nil), chip select high. Once chip select has gone low it is always
// released, also when the transfer or collect fails or panics, and a release failure is
// reported alongside the earlier error instead of hiding it. Nothing is retried.
func (t *Transactor) Exchange(frame []byte, collect func(rx []byte) error) (err error) {
	opcode, addr := frameHeader(frame)
	stepErr := func(step Step, cause error) error {
		return &StepError{Step: step, Opcode: opcode, Address: addr, Err: cause}
	}

	if err := t.cs.Set(gpio.Low); err != nil {
		return stepErr(StepSelectLow, err)
	}
	defer func() {
		if csErr := t.cs.Set(gpio.High); csErr != nil {
			err = multierr.Combine(err, stepErr(StepSelectHigh, csErr))
			return
		}
		if t.SettleUs > 0 && t.delay != nil {
			t.delay.DelayUs(t.SettleUs)
		}
	}()

	if err := t.bus.Transfer(frame); err != nil {
		return stepErr(StepSendCommand, err)
	}
	if collect != nil {
		if err := collect(frame); err != nil {
			return stepErr(StepCollectResponse, err)
		}
	}
	t.logger.Debugw("register transaction", "opcode", opcode, "address", addr, "len", len(frame))
	return nil
}

// ReadRegisters reads n consecutive registers starting at addr.
func (t *Transactor) ReadRegisters(addr uint16, n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.Errorf("cannot read %d registers", n)
	}
	frame := ReadFrame(addr, n)
	values := make([]byte, n)
	err := t.Exchange(frame, func(rx []byte) error {
		if len(rx) != ReadPrefixLen+n {
			return errors.Errorf("response is %d bytes, want %d", len(rx), ReadPrefixLen+n)
		}
		copy(values, rx[ReadPrefixLen:])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// ReadRegister reads the register at addr.
func (t *Transactor) ReadRegister(addr uint16) (byte, error) {
	values, err := t.ReadRegisters(addr, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// WriteRegisters writes data to consecutive registers starting at addr.
func (t *Transactor) WriteRegisters(addr uint16, data []byte) error {
	if len(data) == 0 {
		return errors.New("no register data to write")
	}
	return t.Exchange(WriteFrame(addr, data), nil)
}

// WriteRegister writes value to the register at addr.
func (t *Transactor) WriteRegister(addr uint16, value byte) error {
	return t.WriteRegisters(addr, []byte{value})
}

func frameHeader(frame []byte) (byte, uint16) {
	if len(frame) < 3 {
		if len(frame) == 0 {
			return 0, 0
		}
		return frame[0], 0
	}
	return frame[0], binary.BigEndian.Uint16(frame[1:3])
}
