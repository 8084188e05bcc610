// Package spiregister implements register access for SPI peripherals that address a 16-bit
// register space with an opcode and a big-endian address: chip select is pulled low, one
// full duplex frame is exchanged, and chip select is released.
package spiregister

import (
	"encoding/binary"
)

// Register command opcodes.
const (
	OpReadRegister  byte = 0x1D
	OpWriteRegister byte = 0x0D
)

// Prefix lengths. A read frame carries a status byte after the address, so register data is
// clocked in starting at ReadPrefixLen; a write frame's data follows the address directly.
const (
	ReadPrefixLen  = 4
	WritePrefixLen = 3
)

// ReadFrame returns the frame reading n consecutive registers from addr: opcode, address and
// zero padding for the status byte and the n data bytes.
func ReadFrame(addr uint16, n int) []byte {
	frame := make([]byte, ReadPrefixLen+n)
	frame[0] = OpReadRegister
	binary.BigEndian.PutUint16(frame[1:3], addr)
	return frame
}

// WriteFrame returns the frame writing data to consecutive registers from addr.
func WriteFrame(addr uint16, data []byte) []byte {
	frame := make([]byte, WritePrefixLen+len(data))
	frame[0] = OpWriteRegister
	binary.BigEndian.PutUint16(frame[1:3], addr)
	copy(frame[WritePrefixLen:], data)
	return frame
}
