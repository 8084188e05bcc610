//go:build !linux

package sys

import "time"

// Host is a stand-in on platforms without character devices: every fallible call returns
// ErrUnsupported so code above it still builds and fails cleanly.
type Host struct{}

var _ = Interface(Host{})

// Open always fails.
func (Host) Open(path DevicePath) (FD, error) { return -1, ErrUnsupported }

// Close always fails.
func (Host) Close(fd FD) error { return ErrUnsupported }

// Read always fails.
func (Host) Read(fd FD, buf []byte) (int, error) { return 0, ErrUnsupported }

// Write always fails.
func (Host) Write(fd FD, buf []byte) (int, error) { return 0, ErrUnsupported }

// Ioctl always fails.
func (Host) Ioctl(fd FD, cmd IoctlCmd, arg uintptr) error { return ErrUnsupported }

// IoctlOut always fails.
func (Host) IoctlOut(fd FD, cmd IoctlCmd, out *int32) error { return ErrUnsupported }

// Usleep sleeps with the Go runtime timer.
func (Host) Usleep(us uint32) { time.Sleep(time.Duration(us) * time.Microsecond) }
