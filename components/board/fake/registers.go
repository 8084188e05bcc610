package fake

import (
	"encoding/binary"

	"go.viam.com/chardev/components/board/spiregister"
)

var _ = Device(&RegisterFile{})

// RegisterFile is a Device with a 16-bit addressed byte register space. It answers the read
// (0x1D) and write (0x0D) register commands: a read frame is opcode, address, one status byte
// and then one data byte per register; a write frame is opcode, address and the data bytes.
// Addresses auto-increment for multi-byte accesses.
type RegisterFile struct {
	Regs map[uint16]byte
	// Status is clocked back in every byte of the command prefix.
	Status byte
	// Frames keeps a copy of every frame received.
	Frames [][]byte
}

// NewRegisterFile returns a RegisterFile with all registers at zero.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{Regs: map[uint16]byte{}}
}

// Exchange implements Device.
func (rf *RegisterFile) Exchange(tx []byte) []byte {
	rf.Frames = append(rf.Frames, append([]byte(nil), tx...))
	rx := make([]byte, len(tx))
	if len(tx) < 3 {
		return rx
	}
	addr := binary.BigEndian.Uint16(tx[1:3])
	switch tx[0] {
	case spiregister.OpReadRegister:
		for i := range rx {
			if i < spiregister.ReadPrefixLen {
				rx[i] = rf.Status
				continue
			}
			rx[i] = rf.Regs[addr+uint16(i-spiregister.ReadPrefixLen)]
		}
	case spiregister.OpWriteRegister:
		for i := range rx {
			if i < spiregister.WritePrefixLen {
				rx[i] = rf.Status
				continue
			}
			rf.Regs[addr+uint16(i-spiregister.WritePrefixLen)] = tx[i]
		}
	}
	return rx
}
