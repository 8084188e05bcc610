package chardev

import (
	"math"

	"go.viam.com/chardev/components/board"
	"go.viam.com/chardev/sys"
)

var _ = board.Delayer(Delay{})

// Delay blocks the calling thread with the OS microsecond sleep. It holds no state.
type Delay struct {
	os sys.Interface
}

// NewDelay returns a Delay sleeping through os.
func NewDelay(os sys.Interface) Delay {
	return Delay{os: os}
}

// DelayUs sleeps for us microseconds.
func (d Delay) DelayUs(us uint32) {
	d.os.Usleep(us)
}

// DelayMs sleeps for ms*1000 microseconds. Products that do not fit a single sleep are split
// across several.
func (d Delay) DelayMs(ms uint32) {
	total := uint64(ms) * 1000
	for total > math.MaxUint32 {
		d.DelayUs(math.MaxUint32)
		total -= math.MaxUint32
	}
	d.DelayUs(uint32(total))
}
