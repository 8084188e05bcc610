// Package sys is the only code that crosses into the OS for character devices. Everything above
// it passes bounded, validated values (DevicePath, FD, fixed size buffers) through Interface.
package sys

// FD is an open file descriptor. Values produced by this package are never negative.
type FD int32

// IoctlCmd is an ioctl request code.
type IoctlCmd int32

// Interface is the set of OS primitives the peripheral layer is allowed to use. Host is the real
// implementation; tests substitute a fake.
type Interface interface {
	// Open opens path for read-write access.
	Open(path DevicePath) (FD, error)
	Close(fd FD) error
	Read(fd FD, buf []byte) (int, error)
	Write(fd FD, buf []byte) (int, error)
	// Ioctl issues a request whose argument is passed by value.
	Ioctl(fd FD, cmd IoctlCmd, arg uintptr) error
	// IoctlOut issues a request that writes its result through out.
	IoctlOut(fd FD, cmd IoctlCmd, out *int32) error
	// Usleep suspends the calling thread for at least us microseconds.
	Usleep(us uint32)
}

// ReadExact reads len(buf) bytes into buf and treats any other count as a failure.
func ReadExact(os Interface, fd FD, buf []byte) error {
	n, err := os.Read(fd, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return &LengthMismatchError{Op: OpRead, FD: fd, Want: len(buf), Got: n}
	}
	return nil
}

// WriteExact writes all of buf and treats any other count as a failure.
func WriteExact(os Interface, fd FD, buf []byte) error {
	n, err := os.Write(fd, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return &LengthMismatchError{Op: OpWrite, FD: fd, Want: len(buf), Got: n}
	}
	return nil
}
