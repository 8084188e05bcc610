// Package chardev implements the board capabilities on top of character device nodes: every
// handle owns exactly one descriptor opened read-write, and talks to it only through sys.
package chardev

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"

	"go.viam.com/chardev/logging"
	"go.viam.com/chardev/sys"
)

// GPIO ioctl command codes. Only Write and Read are issued by this package; the remaining codes
// of the range are reserved by the GPIO driver.
const (
	GPIOCBase       sys.IoctlCmd = 0x2300
	GPIOCWrite                   = GPIOCBase + 1
	GPIOCRead                    = GPIOCBase + 2
	GPIOCPinType                 = GPIOCBase + 3
	GPIOCRegister                = GPIOCBase + 4
	GPIOCUnregister              = GPIOCBase + 5
)

// IoctlCodes are the commands used to drive and sample GPIO lines.
type IoctlCodes struct {
	Write sys.IoctlCmd
	Read  sys.IoctlCmd
}

// DefaultIoctlCodes are the GPIO driver's write and read commands.
var DefaultIoctlCodes = IoctlCodes{Write: GPIOCWrite, Read: GPIOCRead}

// ErrClosed is returned by any operation on a handle after Close.
var ErrClosed = errors.New("peripheral handle is closed")

// Role is the kind of peripheral a handle was opened as.
type Role string

// The roles a handle can be opened as.
const (
	RoleSPIBus        Role = "spi_bus"
	RoleGPIOInput     Role = "gpio_input"
	RoleGPIOOutput    Role = "gpio_output"
	RoleGPIOInterrupt Role = "gpio_interrupt"
)

// An OpenError means a peripheral could not be acquired. No handle exists when it is returned,
// and there is no fallback: callers should stop rather than continue without the device.
type OpenError struct {
	Role Role
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open %s %q: %v", e.Role, e.Path, e.Err)
}

// Unwrap returns the encoding or OS error underneath.
func (e *OpenError) Unwrap() error { return e.Err }

// An Opener acquires peripheral handles.
type Opener struct {
	OS     sys.Interface
	Codes  IoctlCodes
	Logger logging.Logger
}

// NewOpener returns an Opener using the default GPIO command codes.
func NewOpener(os sys.Interface, logger logging.Logger) *Opener {
	return &Opener{OS: os, Codes: DefaultIoctlCodes, Logger: logger}
}

type handle struct {
	os     sys.Interface
	role   Role
	path   sys.DevicePath
	fd     sys.FD
	closed bool
	logger logging.Logger
}

func (o *Opener) open(role Role, path string) (handle, error) {
	devPath, err := sys.NewDevicePath(path)
	if err != nil {
		return handle{}, &OpenError{Role: role, Path: path, Err: err}
	}
	fd, err := o.OS.Open(devPath)
	if err != nil {
		return handle{}, &OpenError{Role: role, Path: path, Err: err}
	}
	if fd < 0 {
		return handle{}, &OpenError{
			Role: role,
			Path: path,
			Err:  &sys.OSError{Op: sys.OpOpen, Path: path, Errno: syscall.EBADF},
		}
	}
	logger := o.Logger.Sublogger(string(role))
	logger.Debugw("opened", "path", path, "fd", fd)
	return handle{os: o.OS, role: role, path: devPath, fd: fd, logger: logger}, nil
}

// Close releases the descriptor. Only the first call reaches the OS.
func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.logger.Debugw("closing", "path", h.path.String(), "fd", h.fd)
	if err := h.os.Close(h.fd); err != nil {
		return errors.Wrapf(err, "closing %s %q", h.role, h.path.String())
	}
	return nil
}

// String returns the device path, for diagnostics.
func (h *handle) String() string {
	return h.path.String()
}

// FD returns the owned descriptor.
func (h *handle) FD() sys.FD {
	return h.fd
}

func (h *handle) checkOpen() error {
	if h.closed {
		return ErrClosed
	}
	return nil
}
