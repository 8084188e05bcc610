//go:build linux

package sys

import (
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Host issues real system calls.
type Host struct{}

var _ = Interface(Host{})

// Open opens the device node read-write. The path buffer is already NUL-terminated, so it is
// handed to openat as is.
func (Host) Open(path DevicePath) (FD, error) {
	dirfd := unix.AT_FDCWD
	r1, _, errno := unix.Syscall6(
		unix.SYS_OPENAT,
		uintptr(dirfd),
		uintptr(unsafe.Pointer(&path.buf[0])),
		uintptr(unix.O_RDWR|unix.O_CLOEXEC),
		0, 0, 0)
	fd := int(r1)
	if errno != 0 || fd < 0 {
		return -1, &OSError{Op: OpOpen, Path: path.String(), Errno: nonzero(errno)}
	}
	return FD(fd), nil
}

// Close closes fd.
func (Host) Close(fd FD) error {
	if err := unix.Close(int(fd)); err != nil {
		return &OSError{Op: OpClose, FD: fd, Errno: errnoOf(err)}
	}
	return nil
}

// Read reads at most len(buf) bytes from fd.
func (Host) Read(fd FD, buf []byte) (int, error) {
	n, err := unix.Read(int(fd), buf)
	if err != nil || n < 0 {
		return 0, &OSError{Op: OpRead, FD: fd, Errno: errnoOf(err)}
	}
	return n, nil
}

// Write writes at most len(buf) bytes to fd.
func (Host) Write(fd FD, buf []byte) (int, error) {
	n, err := unix.Write(int(fd), buf)
	if err != nil || n < 0 {
		return 0, &OSError{Op: OpWrite, FD: fd, Errno: errnoOf(err)}
	}
	return n, nil
}

// Ioctl issues cmd with a by-value argument.
func (Host) Ioctl(fd FD, cmd IoctlCmd, arg uintptr) error {
	return ioctl(fd, cmd, arg)
}

// IoctlOut issues cmd with a pointer to out, which the driver fills in.
func (Host) IoctlOut(fd FD, cmd IoctlCmd, out *int32) error {
	return ioctl(fd, cmd, uintptr(unsafe.Pointer(out)))
}

// Usleep sleeps for us microseconds, resuming after signal interruptions.
func (Host) Usleep(us uint32) {
	ts := unix.NsecToTimespec(int64(us) * 1000)
	for {
		var rem unix.Timespec
		if err := unix.Nanosleep(&ts, &rem); !errors.Is(err, unix.EINTR) {
			return
		}
		ts = rem
	}
}

func ioctl(fd FD, cmd IoctlCmd, arg uintptr) error {
	// Command codes are 32 bits wide; keep the bit pattern rather than sign extending.
	r1, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(uint32(cmd)), arg)
	if errno != 0 || int(r1) < 0 {
		return &OSError{Op: OpIoctl, FD: fd, Errno: nonzero(errno)}
	}
	return nil
}

func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}

// A negative return without errno set still has to be reported as a failure.
func nonzero(errno syscall.Errno) syscall.Errno {
	if errno == 0 {
		return syscall.EIO
	}
	return errno
}
