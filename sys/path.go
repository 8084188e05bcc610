package sys

// PathCapacity is the size of the buffer a DevicePath is encoded into, terminator included.
const PathCapacity = 256

// A DevicePath is a NUL-terminated device node path that fits in PathCapacity bytes. The zero
// value is an empty path; the only way to get a non-empty one is NewDevicePath.
type DevicePath struct {
	buf [PathCapacity]byte
	n   int
}

// NewDevicePath encodes path into a fixed buffer. It never truncates: a path that does not leave
// room for the terminator returns an *OverflowError.
func NewDevicePath(path string) (DevicePath, error) {
	var p DevicePath
	n, err := Encode(path, p.buf[:])
	if err != nil {
		return DevicePath{}, err
	}
	p.n = n
	return p, nil
}

// Encode copies src into dst followed by a single NUL byte and returns the number of path bytes
// written (excluding the terminator). A src of len(dst)-1 bytes or more is rejected, and dst is
// left untouched when it is.
func Encode(src string, dst []byte) (int, error) {
	if len(src) >= len(dst)-1 {
		return 0, &OverflowError{Len: len(src), Capacity: len(dst)}
	}
	copy(dst, src)
	dst[len(src)] = 0
	return len(src), nil
}

// String returns the path without its terminator.
func (p *DevicePath) String() string {
	return string(p.buf[:p.n])
}

// Len returns the length of the path without its terminator.
func (p *DevicePath) Len() int {
	return p.n
}

// Bytes returns the encoded path including the terminator. The slice aliases the path's buffer
// and must not be modified.
func (p *DevicePath) Bytes() []byte {
	return p.buf[:p.n+1]
}
