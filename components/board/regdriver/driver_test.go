package regdriver_test

import (
	"math"
	"syscall"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/chardev/components/board"
	"go.viam.com/chardev/components/board/fake"
	"go.viam.com/chardev/components/board/regdriver"
	"go.viam.com/chardev/config"
	"go.viam.com/chardev/logging"
	"go.viam.com/chardev/sys"
	"go.viam.com/chardev/testutils/inject"
)

const (
	spiPath     = "/dev/spitest0"
	csPath      = "/dev/gpio0"
	resetPath   = "/dev/gpio1"
	busyPath    = "/dev/gpio2"
	dio1Path    = "/dev/gpio3"
	antennaPath = "/dev/gpio4"
)

func newHost() (*fake.Host, *fake.RegisterFile, *inject.Syscalls) {
	host := fake.NewHost()
	regs := fake.NewRegisterFile()
	host.AddBus(spiPath, regs)
	for _, path := range []string{csPath, resetPath, busyPath, dio1Path, antennaPath} {
		host.AddLine(path)
	}
	return host, regs, &inject.Syscalls{Interface: host}
}

func fullConfig() *config.Config {
	return &config.Config{
		SPI:        board.SPIConfig{Path: spiPath},
		ChipSelect: board.PinConfig{Path: csPath},
		Reset:      board.PinConfig{Path: resetPath},
		Busy:       board.PinConfig{Path: busyPath},
		DIO1:       board.PinConfig{Path: dio1Path},
		Antenna:    board.PinConfig{Path: antennaPath},
	}
}

func minimalConfig() *config.Config {
	return &config.Config{
		SPI:        board.SPIConfig{Path: spiPath},
		ChipSelect: board.PinConfig{Path: csPath},
	}
}

func TestOpenClose(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("all lines", func(t *testing.T) {
		host, _, injectOS := newHost()
		d, err := regdriver.Open(injectOS, fullConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, host.Opens, test.ShouldEqual, 6)

		opened := []string{}
		for _, c := range injectOS.CallsOf("open") {
			opened = append(opened, c.Path)
		}
		test.That(t, opened, test.ShouldResemble, []string{spiPath, csPath, resetPath, antennaPath, busyPath, dio1Path})

		test.That(t, d.Close(), test.ShouldBeNil)
		test.That(t, d.Close(), test.ShouldBeNil)
		test.That(t, host.Closes, test.ShouldEqual, 6)
		test.That(t, host.OpenFDs, test.ShouldBeEmpty)

		closed := []sys.FD{}
		for _, c := range injectOS.CallsOf("close") {
			closed = append(closed, c.FD)
		}
		test.That(t, closed, test.ShouldResemble, []sys.FD{8, 7, 6, 5, 4, 3})
	})

	t.Run("unwired lines", func(t *testing.T) {
		host, _, injectOS := newHost()
		d, err := regdriver.Open(injectOS, minimalConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, host.Opens, test.ShouldEqual, 2)

		status, err := d.Status()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, status, test.ShouldResemble, regdriver.Status{})
		test.That(t, d.Reset(), test.ShouldBeNil)
		test.That(t, injectOS.CallsOf("ioctl"), test.ShouldBeEmpty)

		test.That(t, d.Close(), test.ShouldBeNil)
		test.That(t, host.Closes, test.ShouldEqual, 2)
	})

	t.Run("acquisition failure releases everything", func(t *testing.T) {
		host, _, injectOS := newHost()
		delete(host.Lines, busyPath)
		d, err := regdriver.Open(injectOS, fullConfig(), logger)
		test.That(t, d, test.ShouldBeNil)
		test.That(t, errors.Is(err, syscall.ENOENT), test.ShouldBeTrue)
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindOpen)
		test.That(t, host.Opens, test.ShouldEqual, 4)
		test.That(t, host.Closes, test.ShouldEqual, 4)
		test.That(t, host.OpenFDs, test.ShouldBeEmpty)
	})

	t.Run("bus failure", func(t *testing.T) {
		host, _, injectOS := newHost()
		conf := minimalConfig()
		conf.SPI.Path = "/dev/spitest9"
		_, err := regdriver.Open(injectOS, conf, logger)
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindOpen)
		test.That(t, host.Opens, test.ShouldEqual, 0)
		test.That(t, injectOS.CallsOf("close"), test.ShouldBeEmpty)
	})

	t.Run("close failure", func(t *testing.T) {
		host, _, injectOS := newHost()
		d, err := regdriver.Open(injectOS, minimalConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		injectOS.CloseFunc = func(fd sys.FD) error {
			if fd == 4 {
				return &sys.OSError{Op: sys.OpClose, FD: fd, Errno: syscall.EIO}
			}
			return host.Close(fd)
		}
		err = d.Close()
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindClose)
		// The bus is still released after the chip select fails to close.
		test.That(t, len(injectOS.CallsOf("close")), test.ShouldEqual, 2)
		test.That(t, d.Close(), test.ShouldBeNil)
	})
}

func TestRegisters(t *testing.T) {
	host, regs, injectOS := newHost()
	regs.Regs[8] = 0xAB
	logger, logs := logging.NewObservedTestLogger(t)
	d, err := regdriver.Open(injectOS, fullConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, d.Close(), test.ShouldBeNil)
	}()

	value, err := d.ReadRegister(8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldEqual, byte(0xAB))

	test.That(t, d.WriteRegister(0x0740, 0x34), test.ShouldBeNil)
	value, err = d.ReadRegister(0x0740)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldEqual, byte(0x34))

	test.That(t, d.WriteRegisters(0x0100, []byte{7, 8}), test.ShouldBeNil)
	values, err := d.ReadRegisters(0x0100, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []byte{7, 8})

	// Chip select went low then high around every transaction.
	cs := host.Lines[csPath]
	test.That(t, len(cs.Writes), test.ShouldEqual, 10)
	for i, arg := range cs.Writes {
		test.That(t, arg, test.ShouldEqual, uintptr(i%2))
	}

	t.Run("busy", func(t *testing.T) {
		host.Lines[busyPath].Level = 1
		host.SleptUs = 0
		_, err := d.ReadRegister(8)
		test.That(t, errors.Is(err, regdriver.ErrBusy), test.ShouldBeTrue)
		test.That(t, host.SleptUs, test.ShouldEqual, uint64(100*100))
		test.That(t, logs.FilterMessage("busy line did not drop").Len(), test.ShouldEqual, 1)
		host.Lines[busyPath].Level = 0
	})

	t.Run("status", func(t *testing.T) {
		host.Lines[dio1Path].Level = 1
		status, err := d.Status()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, status, test.ShouldResemble, regdriver.Status{IRQ: true})
	})
}

func TestReset(t *testing.T) {
	host, _, injectOS := newHost()
	d, err := regdriver.Open(injectOS, fullConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, d.Close(), test.ShouldBeNil)
	}()

	test.That(t, d.Reset(), test.ShouldBeNil)
	test.That(t, host.Lines[resetPath].Writes, test.ShouldResemble, []uintptr{0, 1})
	test.That(t, host.SleptUs, test.ShouldEqual, uint64(200+1000))

	t.Run("stuck busy", func(t *testing.T) {
		host.Lines[busyPath].Level = 1
		err := d.Reset()
		test.That(t, errors.Is(err, regdriver.ErrBusy), test.ShouldBeTrue)
		host.Lines[busyPath].Level = 0
	})

	t.Run("reset line failure", func(t *testing.T) {
		injectOS.IoctlFunc = func(fd sys.FD, cmd sys.IoctlCmd, arg uintptr) error {
			return &sys.OSError{Op: sys.OpIoctl, FD: fd, Errno: syscall.EIO}
		}
		defer func() { injectOS.IoctlFunc = nil }()
		err := d.Reset()
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindIoctl)
	})
}

func TestRun(t *testing.T) {
	t.Run("smoke", func(t *testing.T) {
		host, _, injectOS := newHost()
		mock := clock.NewMock()
		injectOS.UsleepFunc = func(us uint32) {
			host.Usleep(us)
			mock.Add(time.Duration(us) * time.Microsecond)
		}
		conf := minimalConfig()
		conf.SPI.SettleUs = 25

		var results []regdriver.Result
		err := regdriver.Session(injectOS, conf, logging.NewTestLogger(t), func(d *regdriver.Driver) error {
			var err error
			results, err = d.Run(regdriver.Plan{
				Writes:     []regdriver.Write{{Address: 0x0740, Value: 0x34}},
				Reads:      []uint16{0x0740, 0x0741},
				Iterations: 3,
			})
			return err
		}, regdriver.WithClock(mock))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(results), test.ShouldEqual, 9)
		for i, res := range results {
			test.That(t, res.Err, test.ShouldBeNil)
			test.That(t, res.Iteration, test.ShouldEqual, i/3)
			test.That(t, res.Elapsed, test.ShouldEqual, 25*time.Microsecond)
		}
		test.That(t, results[0].Write, test.ShouldBeTrue)
		test.That(t, results[1].Value, test.ShouldEqual, byte(0x34))
		test.That(t, results[2].Value, test.ShouldEqual, byte(0))
		test.That(t, results[1].String(), test.ShouldEqual, "#0 read 0x0740 = 0x34 (25µs)")
		test.That(t, host.OpenFDs, test.ShouldBeEmpty)
	})

	t.Run("summary", func(t *testing.T) {
		host, _, injectOS := newHost()
		mock := clock.NewMock()
		// Each transaction settles once; make every one take 10µs longer than the last.
		var n time.Duration
		injectOS.UsleepFunc = func(us uint32) {
			host.Usleep(us)
			n++
			mock.Add(n * 10 * time.Microsecond)
		}
		conf := minimalConfig()
		conf.SPI.SettleUs = 25

		var summary regdriver.Summary
		err := regdriver.Session(injectOS, conf, logging.NewTestLogger(t), func(d *regdriver.Driver) error {
			results, err := d.Run(regdriver.Plan{
				Writes:     []regdriver.Write{{Address: 0x0740, Value: 0x34}},
				Reads:      []uint16{0x0740},
				Iterations: 2,
			})
			if err != nil {
				return err
			}
			summary, err = regdriver.Summarize(results)
			return err
		}, regdriver.WithClock(mock))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, summary.Count, test.ShouldEqual, 4)
		test.That(t, summary.Mean, test.ShouldEqual, 25*time.Microsecond)
		test.That(t, summary.P95, test.ShouldEqual, 40*time.Microsecond)
		test.That(t, summary.Max, test.ShouldEqual, 40*time.Microsecond)
		test.That(t, summary.String(), test.ShouldEqual, "4 transaction(s), mean 25µs, p95 40µs, max 40µs")

		_, err = regdriver.Summarize(nil)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("defaults to one pass", func(t *testing.T) {
		_, _, injectOS := newHost()
		err := regdriver.Session(injectOS, minimalConfig(), logging.NewTestLogger(t), func(d *regdriver.Driver) error {
			results, err := d.Run(regdriver.Plan{Reads: []uint16{8}})
			test.That(t, len(results), test.ShouldEqual, 1)
			return err
		})
		test.That(t, err, test.ShouldBeNil)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		host, _, injectOS := newHost()
		host.Buses[spiPath].ReadLimit = 3
		logger, logs := logging.NewObservedTestLogger(t)

		var results []regdriver.Result
		err := regdriver.Session(injectOS, minimalConfig(), logger, func(d *regdriver.Driver) error {
			var err error
			results, err = d.Run(regdriver.Plan{Reads: []uint16{8, 9}, Iterations: 5})
			return err
		})
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindLength)
		test.That(t, len(results), test.ShouldEqual, 1)
		test.That(t, sys.KindOf(results[0].Err), test.ShouldEqual, sys.KindLength)
		test.That(t, results[0].String(), test.ShouldContainSubstring, "#0 read 0x0008")
		test.That(t, logs.FilterMessage("register read failed").Len(), test.ShouldEqual, 1)
		test.That(t, host.OpenFDs, test.ShouldBeEmpty)
	})

	t.Run("huge iteration count", func(t *testing.T) {
		host, _, injectOS := newHost()
		host.Buses[spiPath].ReadLimit = 3
		err := regdriver.Session(injectOS, minimalConfig(), logging.NewTestLogger(t), func(d *regdriver.Driver) error {
			results, err := d.Run(regdriver.Plan{Reads: []uint16{8, 9}, Iterations: math.MaxInt})
			test.That(t, len(results), test.ShouldEqual, 1)
			return err
		})
		test.That(t, sys.KindOf(err), test.ShouldEqual, sys.KindLength)
	})
}

func TestSession(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		host, _, injectOS := newHost()
		fnErr := errors.New("fn failed")
		err := regdriver.Session(injectOS, fullConfig(), logging.NewTestLogger(t), func(d *regdriver.Driver) error {
			return fnErr
		})
		test.That(t, errors.Is(err, fnErr), test.ShouldBeTrue)
		test.That(t, host.Closes, test.ShouldEqual, 6)
	})

	t.Run("panic", func(t *testing.T) {
		host, _, injectOS := newHost()
		test.That(t, func() {
			//nolint:errcheck
			regdriver.Session(injectOS, fullConfig(), logging.NewTestLogger(t), func(d *regdriver.Driver) error {
				panic("fn panicked")
			})
		}, test.ShouldPanic)
		test.That(t, host.Opens, test.ShouldEqual, 6)
		test.That(t, host.Closes, test.ShouldEqual, 6)
	})

	t.Run("open failure", func(t *testing.T) {
		_, _, injectOS := newHost()
		called := false
		conf := minimalConfig()
		conf.ChipSelect.Path = "/dev/gpio9"
		err := regdriver.Session(injectOS, conf, logging.NewTestLogger(t), func(d *regdriver.Driver) error {
			called = true
			return nil
		})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, called, test.ShouldBeFalse)
	})
}
