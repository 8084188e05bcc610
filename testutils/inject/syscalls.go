package inject

import (
	"go.viam.com/chardev/sys"
)

// Call is one recorded call into a Syscalls.
type Call struct {
	Op   string
	Path string
	FD   sys.FD
	Cmd  sys.IoctlCmd
	Arg  uintptr
	Len  int
	Us   uint32
}

// Syscalls is an injected sys.Interface. Every call is recorded in Calls before it is handed to
// the injected function, or to the embedded Interface when none is set.
type Syscalls struct {
	sys.Interface
	OpenFunc     func(path sys.DevicePath) (sys.FD, error)
	CloseFunc    func(fd sys.FD) error
	ReadFunc     func(fd sys.FD, buf []byte) (int, error)
	WriteFunc    func(fd sys.FD, buf []byte) (int, error)
	IoctlFunc    func(fd sys.FD, cmd sys.IoctlCmd, arg uintptr) error
	IoctlOutFunc func(fd sys.FD, cmd sys.IoctlCmd, out *int32) error
	UsleepFunc   func(us uint32)

	Calls []Call
}

// Open calls the injected Open or the real version.
func (s *Syscalls) Open(path sys.DevicePath) (sys.FD, error) {
	s.Calls = append(s.Calls, Call{Op: "open", Path: path.String()})
	if s.OpenFunc == nil {
		return s.Interface.Open(path)
	}
	return s.OpenFunc(path)
}

// Close calls the injected Close or the real version.
func (s *Syscalls) Close(fd sys.FD) error {
	s.Calls = append(s.Calls, Call{Op: "close", FD: fd})
	if s.CloseFunc == nil {
		return s.Interface.Close(fd)
	}
	return s.CloseFunc(fd)
}

// Read calls the injected Read or the real version.
func (s *Syscalls) Read(fd sys.FD, buf []byte) (int, error) {
	s.Calls = append(s.Calls, Call{Op: "read", FD: fd, Len: len(buf)})
	if s.ReadFunc == nil {
		return s.Interface.Read(fd, buf)
	}
	return s.ReadFunc(fd, buf)
}

// Write calls the injected Write or the real version.
func (s *Syscalls) Write(fd sys.FD, buf []byte) (int, error) {
	s.Calls = append(s.Calls, Call{Op: "write", FD: fd, Len: len(buf)})
	if s.WriteFunc == nil {
		return s.Interface.Write(fd, buf)
	}
	return s.WriteFunc(fd, buf)
}

// Ioctl calls the injected Ioctl or the real version.
func (s *Syscalls) Ioctl(fd sys.FD, cmd sys.IoctlCmd, arg uintptr) error {
	s.Calls = append(s.Calls, Call{Op: "ioctl", FD: fd, Cmd: cmd, Arg: arg})
	if s.IoctlFunc == nil {
		return s.Interface.Ioctl(fd, cmd, arg)
	}
	return s.IoctlFunc(fd, cmd, arg)
}

// IoctlOut calls the injected IoctlOut or the real version.
func (s *Syscalls) IoctlOut(fd sys.FD, cmd sys.IoctlCmd, out *int32) error {
	s.Calls = append(s.Calls, Call{Op: "ioctl_out", FD: fd, Cmd: cmd})
	if s.IoctlOutFunc == nil {
		return s.Interface.IoctlOut(fd, cmd, out)
	}
	return s.IoctlOutFunc(fd, cmd, out)
}

// Usleep calls the injected Usleep or the real version.
func (s *Syscalls) Usleep(us uint32) {
	s.Calls = append(s.Calls, Call{Op: "usleep", Us: us})
	if s.UsleepFunc == nil {
		s.Interface.Usleep(us)
		return
	}
	s.UsleepFunc(us)
}

// Ops returns the operation names of the recorded calls, in order.
func (s *Syscalls) Ops() []string {
	ops := make([]string, 0, len(s.Calls))
	for _, c := range s.Calls {
		ops = append(ops, c.Op)
	}
	return ops
}

// CallsOf returns the recorded calls of a single operation, in order.
func (s *Syscalls) CallsOf(op string) []Call {
	var calls []Call
	for _, c := range s.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}
