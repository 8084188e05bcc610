package chardev

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3"

	"go.viam.com/chardev/components/board"
	"go.viam.com/chardev/sys"
)

var (
	_ = board.Transferer(&SPIBus{})
	_ = conn.Conn(&SPIBus{})
)

// SPIBus is an SPI device node. The driver behind it latches the bytes clocked in while a
// write is clocked out; the following read of the same length returns them, which emulates a
// full duplex transfer over two half duplex calls.
type SPIBus struct {
	handle
}

// OpenSPIBus opens the SPI bus at path.
func (o *Opener) OpenSPIBus(path string) (*SPIBus, error) {
	h, err := o.open(RoleSPIBus, path)
	if err != nil {
		return nil, err
	}
	return &SPIBus{h}, nil
}

// Transfer writes all of buf, then reads len(buf) bytes back into it.
func (s *SPIBus) Transfer(buf []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(buf) == 0 {
		return nil
	}
	if err := sys.WriteExact(s.os, s.fd, buf); err != nil {
		return errors.Wrapf(err, "spi transfer on %q", s.path.String())
	}
	if err := sys.ReadExact(s.os, s.fd, buf); err != nil {
		return errors.Wrapf(err, "spi transfer on %q", s.path.String())
	}
	return nil
}

// Tx implements conn.Conn. w is left untouched; r, when not empty, must be as long as w.
func (s *SPIBus) Tx(w, r []byte) error {
	if len(r) != 0 && len(r) != len(w) {
		return errors.Errorf("spi tx: read buffer is %d bytes, write buffer is %d", len(r), len(w))
	}
	if len(r) == 0 {
		r = make([]byte, len(w))
	}
	copy(r, w)
	return s.Transfer(r)
}

// Duplex implements conn.Conn.
func (s *SPIBus) Duplex() conn.Duplex {
	return conn.Full
}
