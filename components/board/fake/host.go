// Package fake implements a fake host: an in-memory set of GPIO and SPI device nodes behind
// sys.Interface, for exercising the peripheral layer without hardware.
package fake

import (
	"syscall"

	"go.viam.com/chardev/components/board/chardev"
	"go.viam.com/chardev/sys"
)

var _ = sys.Interface(&Host{})

// A Device answers SPI traffic. Exchange receives the bytes clocked out and returns the bytes
// clocked in during the same transfer; the result must be as long as tx.
type Device interface {
	Exchange(tx []byte) []byte
}

// Line is a fake GPIO line. Writes records the argument of every write ioctl it received.
type Line struct {
	Level  int32
	Writes []uintptr
}

// Bus is a fake SPI device node.
type Bus struct {
	Device Device
	// ReadLimit, when positive, caps how many bytes a single read returns.
	ReadLimit int
	// WriteLimit, when positive, caps how many bytes a single write accepts.
	WriteLimit int

	pending []byte
}

// Host holds the fake device nodes by path. Descriptors are handed out from 3 upwards and
// never reused.
type Host struct {
	Lines map[string]*Line
	Buses map[string]*Bus
	Codes chardev.IoctlCodes

	// Opens and Closes count successful calls; OpenFDs holds descriptors not yet closed.
	Opens   int
	Closes  int
	OpenFDs map[sys.FD]string

	// SleptUs is the total time passed to Usleep.
	SleptUs uint64

	nextFD sys.FD
}

// NewHost returns an empty host using the default GPIO command codes.
func NewHost() *Host {
	return &Host{
		Lines:   map[string]*Line{},
		Buses:   map[string]*Bus{},
		Codes:   chardev.DefaultIoctlCodes,
		OpenFDs: map[sys.FD]string{},
		nextFD:  3,
	}
}

// AddLine adds a GPIO line at path and returns it.
func (h *Host) AddLine(path string) *Line {
	l := &Line{}
	h.Lines[path] = l
	return l
}

// AddBus adds an SPI device node at path backed by dev.
func (h *Host) AddBus(path string, dev Device) *Bus {
	b := &Bus{Device: dev}
	h.Buses[path] = b
	return b
}

// Open opens a node that was added before, or fails with ENOENT.
func (h *Host) Open(path sys.DevicePath) (sys.FD, error) {
	p := path.String()
	_, isLine := h.Lines[p]
	_, isBus := h.Buses[p]
	if !isLine && !isBus {
		return -1, &sys.OSError{Op: sys.OpOpen, Path: p, Errno: syscall.ENOENT}
	}
	fd := h.nextFD
	h.nextFD++
	h.OpenFDs[fd] = p
	h.Opens++
	return fd, nil
}

// Close releases fd, or fails with EBADF if it is not open.
func (h *Host) Close(fd sys.FD) error {
	if _, ok := h.OpenFDs[fd]; !ok {
		return &sys.OSError{Op: sys.OpClose, FD: fd, Errno: syscall.EBADF}
	}
	delete(h.OpenFDs, fd)
	h.Closes++
	return nil
}

// Write clocks buf out to the bus device and latches its answer for the next read.
func (h *Host) Write(fd sys.FD, buf []byte) (int, error) {
	bus, err := h.bus(fd, sys.OpWrite)
	if err != nil {
		return 0, err
	}
	n := len(buf)
	if bus.WriteLimit > 0 && n > bus.WriteLimit {
		n = bus.WriteLimit
	}
	var rx []byte
	if bus.Device != nil {
		rx = bus.Device.Exchange(append([]byte(nil), buf[:n]...))
	} else {
		rx = make([]byte, n)
	}
	bus.pending = rx
	return n, nil
}

// Read returns bytes latched by the previous write.
func (h *Host) Read(fd sys.FD, buf []byte) (int, error) {
	bus, err := h.bus(fd, sys.OpRead)
	if err != nil {
		return 0, err
	}
	n := copy(buf, bus.pending)
	if bus.ReadLimit > 0 && n > bus.ReadLimit {
		n = bus.ReadLimit
	}
	bus.pending = nil
	return n, nil
}

// Ioctl handles the GPIO write command.
func (h *Host) Ioctl(fd sys.FD, cmd sys.IoctlCmd, arg uintptr) error {
	line, err := h.line(fd)
	if err != nil {
		return err
	}
	if cmd != h.Codes.Write {
		return &sys.OSError{Op: sys.OpIoctl, FD: fd, Errno: syscall.ENOTTY}
	}
	line.Writes = append(line.Writes, arg)
	line.Level = int32(arg)
	return nil
}

// IoctlOut handles the GPIO read command.
func (h *Host) IoctlOut(fd sys.FD, cmd sys.IoctlCmd, out *int32) error {
	line, err := h.line(fd)
	if err != nil {
		return err
	}
	if cmd != h.Codes.Read {
		return &sys.OSError{Op: sys.OpIoctl, FD: fd, Errno: syscall.ENOTTY}
	}
	*out = line.Level
	return nil
}

// Usleep adds to SleptUs without sleeping.
func (h *Host) Usleep(us uint32) {
	h.SleptUs += uint64(us)
}

func (h *Host) bus(fd sys.FD, op sys.Op) (*Bus, error) {
	path, ok := h.OpenFDs[fd]
	if !ok {
		return nil, &sys.OSError{Op: op, FD: fd, Errno: syscall.EBADF}
	}
	bus, ok := h.Buses[path]
	if !ok {
		return nil, &sys.OSError{Op: op, FD: fd, Errno: syscall.EINVAL}
	}
	return bus, nil
}

func (h *Host) line(fd sys.FD) (*Line, error) {
	path, ok := h.OpenFDs[fd]
	if !ok {
		return nil, &sys.OSError{Op: sys.OpIoctl, FD: fd, Errno: syscall.EBADF}
	}
	line, ok := h.Lines[path]
	if !ok {
		return nil, &sys.OSError{Op: sys.OpIoctl, FD: fd, Errno: syscall.ENOTTY}
	}
	return line, nil
}
