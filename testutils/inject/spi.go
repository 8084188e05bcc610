package inject

import (
	"go.viam.com/chardev/components/board"
)

// SPI is an injected SPI bus.
type SPI struct {
	board.Transferer
	TransferFunc func(buf []byte) error
	transferCap  [][]byte
}

// Transfer calls the injected Transfer or the real version. A copy of each outbound buffer is
// kept for TransferCap.
func (s *SPI) Transfer(buf []byte) error {
	s.transferCap = append(s.transferCap, append([]byte(nil), buf...))
	if s.TransferFunc == nil {
		return s.Transferer.Transfer(buf)
	}
	return s.TransferFunc(buf)
}

// TransferCap returns the outbound buffers received by Transfer, and then clears them.
func (s *SPI) TransferCap() [][]byte {
	if s == nil {
		return nil
	}
	defer func() { s.transferCap = nil }()
	return s.transferCap
}
