package sys

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned by Host on platforms without character device support.
var ErrUnsupported = errors.New("character devices are only supported on linux")

// Op names the OS primitive an error came from.
type Op string

// The primitives wrapped by Interface.
const (
	OpOpen  Op = "open"
	OpClose Op = "close"
	OpRead  Op = "read"
	OpWrite Op = "write"
	OpIoctl Op = "ioctl"
)

// An OverflowError is returned when text does not fit a fixed buffer with its terminator.
type OverflowError struct {
	Len      int
	Capacity int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%d bytes do not fit a %d byte buffer with terminator", e.Len, e.Capacity)
}

// An OSError is a negative return from an OS primitive, with the raw error code.
type OSError struct {
	Op    Op
	Path  string // set for open
	FD    FD     // set for everything else
	Errno syscall.Errno
}

func (e *OSError) Error() string {
	if e.Op == OpOpen {
		return fmt.Sprintf("%s %s: %v (errno %d)", e.Op, e.Path, e.Errno, int(e.Errno))
	}
	return fmt.Sprintf("%s fd %d: %v (errno %d)", e.Op, e.FD, e.Errno, int(e.Errno))
}

// Unwrap exposes the errno so callers can match it with errors.Is, e.g. against syscall.ENOENT.
func (e *OSError) Unwrap() error {
	return e.Errno
}

// A LengthMismatchError is returned when a read or write moved a different number of bytes
// than were requested.
type LengthMismatchError struct {
	Op   Op
	FD   FD
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s fd %d: transferred %d of %d bytes", e.Op, e.FD, e.Got, e.Want)
}

// Kind classifies an error from this layer.
type Kind int

// Error kinds reported by KindOf.
const (
	KindUnknown Kind = iota
	KindOverflow
	KindOpen
	KindClose
	KindRead
	KindWrite
	KindIoctl
	KindLength
)

func (k Kind) String() string {
	switch k {
	case KindOverflow:
		return "overflow"
	case KindOpen:
		return "open"
	case KindClose:
		return "close"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindIoctl:
		return "ioctl"
	case KindLength:
		return "length mismatch"
	case KindUnknown:
		fallthrough
	default:
		return "unknown"
	}
}

// KindOf returns the kind of the first error of this package found in err's chain.
func KindOf(err error) Kind {
	var overflow *OverflowError
	if errors.As(err, &overflow) {
		return KindOverflow
	}
	var mismatch *LengthMismatchError
	if errors.As(err, &mismatch) {
		return KindLength
	}
	var osErr *OSError
	if errors.As(err, &osErr) {
		switch osErr.Op {
		case OpOpen:
			return KindOpen
		case OpClose:
			return KindClose
		case OpRead:
			return KindRead
		case OpWrite:
			return KindWrite
		case OpIoctl:
			return KindIoctl
		}
	}
	return KindUnknown
}
