package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"

	"go.viam.com/chardev/components/board/chardev"
	"go.viam.com/chardev/components/board/regdriver"
	"go.viam.com/chardev/config"
	"go.viam.com/chardev/console"
	"go.viam.com/chardev/logging"
	"go.viam.com/chardev/sys"
)

type regtool struct {
	logger logging.Logger
	out    *console.Console
	os     sys.Interface
}

func (t *regtool) before(c *cli.Context) error {
	if c.Bool(flagDebug) {
		t.logger.SetLevel(logging.DEBUG)
	}
	return nil
}

// loadConfig reads the config file, if any, and applies command line overrides on top.
func (t *regtool) loadConfig(c *cli.Context) (*config.Config, error) {
	attrs := config.AttributeMap{}
	if path := c.String(flagConfig); path != "" {
		var err error
		if attrs, err = config.ReadAttributes(path); err != nil {
			return nil, err
		}
	}
	if spi := c.String(flagSPI); spi != "" {
		attrs.Set("spi.path", spi)
	}
	if cs := c.String(flagChipSelect); cs != "" {
		attrs.Set("chip_select.path", cs)
	}
	conf, err := config.FromAttributes(attrs)
	if err != nil {
		return nil, err
	}
	conf.ConfigFilePath = c.String(flagConfig)
	if err := config.InitLoggingSettings(t.logger, c.Bool(flagDebug), conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// session runs fn against a driver opened from the loaded config.
func (t *regtool) session(c *cli.Context, fn func(*regdriver.Driver) error) error {
	conf, err := t.loadConfig(c)
	if err != nil {
		return err
	}
	return regdriver.Session(t.os, conf, t.logger, fn)
}

func (t *regtool) readAction(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return errors.New("usage: read <address> [count]")
	}
	addr, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	count := 1
	if c.NArg() == 2 {
		if count, err = parseCount(c.Args().Get(1)); err != nil {
			return err
		}
	}
	return t.session(c, func(d *regdriver.Driver) error {
		values, err := d.ReadRegisters(addr, count)
		if err != nil {
			return err
		}
		for i, v := range values {
			if err := t.out.Printf("0x%04X = 0x%02X", int(addr)+i, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *regtool) writeAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("usage: write <address> <value> [value...]")
	}
	addr, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	values := make([]byte, 0, c.NArg()-1)
	for _, arg := range c.Args().Tail() {
		v, err := parseValue(arg)
		if err != nil {
			return err
		}
		values = append(values, v)
	}
	return t.session(c, func(d *regdriver.Driver) error {
		if err := d.WriteRegisters(addr, values); err != nil {
			return err
		}
		return t.out.Printf("wrote %d register(s) at 0x%04X", len(values), addr)
	})
}

func (t *regtool) dumpAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("usage: dump <address> <count>")
	}
	addr, err := parseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}
	count, err := parseCount(c.Args().Get(1))
	if err != nil {
		return err
	}
	return t.session(c, func(d *regdriver.Driver) error {
		values, err := d.ReadRegisters(addr, count)
		if err != nil {
			return err
		}
		return t.printLines(registerTable(addr, values))
	})
}

func (t *regtool) smokeAction(c *cli.Context) error {
	plan := regdriver.Plan{Iterations: c.Int(flagIterations)}
	for _, arg := range c.StringSlice(flagWrite) {
		w, err := parseWrite(arg)
		if err != nil {
			return err
		}
		plan.Writes = append(plan.Writes, w)
	}
	for _, arg := range c.StringSlice(flagRead) {
		addr, err := parseAddress(arg)
		if err != nil {
			return err
		}
		plan.Reads = append(plan.Reads, addr)
	}
	return t.session(c, func(d *regdriver.Driver) error {
		results, err := d.Run(plan)
		for _, res := range results {
			if printErr := t.printResult(res); printErr != nil {
				// The failed transaction, if any, is what gets reported.
				if err != nil {
					return err
				}
				return printErr
			}
		}
		if err != nil {
			return err
		}
		summary, err := regdriver.Summarize(results)
		if err != nil {
			return err
		}
		return t.out.Printf("smoke ok: %s", summary)
	})
}

// printResult prints one result line. A failure whose error text does not fit on a line is
// printed without it; the error itself is reported separately.
func (t *regtool) printResult(res regdriver.Result) error {
	err := t.out.Println(res.String())
	var overflow *sys.OverflowError
	if res.Err != nil && errors.As(err, &overflow) {
		return t.out.Printf("#%d %s 0x%04X: failed", res.Iteration, res.Op(), res.Address)
	}
	return err
}

func (t *regtool) resetAction(c *cli.Context) error {
	return t.session(c, func(d *regdriver.Driver) error {
		if err := d.Reset(); err != nil {
			return err
		}
		return t.out.Println("reset: ready")
	})
}

func (t *regtool) statusAction(c *cli.Context) error {
	return t.session(c, func(d *regdriver.Driver) error {
		status, err := d.Status()
		if err != nil {
			return err
		}
		return t.out.Printf("busy=%t irq=%t", status.Busy, status.IRQ)
	})
}

// opener returns an Opener using the command codes of the config file, when one is given.
func (t *regtool) opener(c *cli.Context) (*chardev.Opener, error) {
	opener := chardev.NewOpener(t.os, t.logger)
	if c.String(flagConfig) != "" {
		conf, err := t.loadConfig(c)
		if err != nil {
			return nil, err
		}
		opener.Codes = conf.IoctlCodes()
	}
	return opener, nil
}

func (t *regtool) gpioGetAction(c *cli.Context) (err error) {
	if c.NArg() != 1 {
		return errors.New("usage: gpio get <path>")
	}
	opener, err := t.opener(c)
	if err != nil {
		return err
	}
	pin, err := opener.OpenGPIOInput(c.Args().First())
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, pin.Close())
	}()
	level, err := pin.Read()
	if err != nil {
		return err
	}
	return t.out.Printf("%s %s", pin, level)
}

func (t *regtool) gpioSetAction(c *cli.Context) (err error) {
	if c.NArg() != 2 {
		return errors.New("usage: gpio set <path> <0|1|low|high>")
	}
	level, err := parseLevel(c.Args().Get(1))
	if err != nil {
		return err
	}
	opener, err := t.opener(c)
	if err != nil {
		return err
	}
	pin, err := opener.OpenGPIOOutput(c.Args().First())
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, pin.Close())
	}()
	if err := pin.Set(level); err != nil {
		return err
	}
	return t.out.Printf("%s %s", pin, level)
}

// printLines prints multi-line text one console line at a time.
func (t *regtool) printLines(text string) error {
	for _, line := range strings.Split(text, "\n") {
		if err := t.out.Println(line); err != nil {
			return err
		}
	}
	return nil
}

func registerTable(addr uint16, values []byte) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Address", "Hex", "Dec", "Bin"})
	for i, v := range values {
		tw.AppendRow(table.Row{
			fmt.Sprintf("0x%04X", int(addr)+i),
			fmt.Sprintf("0x%02X", v),
			v,
			fmt.Sprintf("%08b", v),
		})
	}
	return tw.Render()
}

// parseAddress accepts a register address in decimal or with a 0x prefix, e.g. 0x0740 or 1856.
func parseAddress(s string) (uint16, error) {
	v, err := cast.ToInt64E(decimal(s))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid address %q", s)
	}
	if v < 0 || v > math.MaxUint16 {
		return 0, errors.Errorf("address %q is out of range", s)
	}
	return uint16(v), nil
}

func parseValue(s string) (byte, error) {
	v, err := cast.ToInt64E(decimal(s))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid value %q", s)
	}
	if v < 0 || v > math.MaxUint8 {
		return 0, errors.Errorf("value %q does not fit in a byte", s)
	}
	return byte(v), nil
}

func parseCount(s string) (int, error) {
	v, err := cast.ToIntE(decimal(s))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid count %q", s)
	}
	if v < 1 || v > math.MaxUint16+1 {
		return 0, errors.Errorf("count %q is out of range", s)
	}
	return v, nil
}

// decimal strips leading zeros so that 0740 means 740 rather than octal 0740. Numbers with a
// base prefix (0x, 0b, 0o) are returned unchanged.
func decimal(s string) string {
	if len(s) > 1 && s[0] == '0' && strings.ContainsRune("xXbBoO", rune(s[1])) {
		return s
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" && s != "" {
		return "0"
	}
	return trimmed
}

// parseWrite parses ADDRESS=VALUE.
func parseWrite(s string) (regdriver.Write, error) {
	a, v, ok := strings.Cut(s, "=")
	if !ok {
		return regdriver.Write{}, errors.Errorf("expected ADDRESS=VALUE, got %q", s)
	}
	addr, err := parseAddress(a)
	if err != nil {
		return regdriver.Write{}, err
	}
	value, err := parseValue(v)
	if err != nil {
		return regdriver.Write{}, err
	}
	return regdriver.Write{Address: addr, Value: value}, nil
}

func parseLevel(s string) (gpio.Level, error) {
	switch strings.ToLower(s) {
	case "0", "low":
		return gpio.Low, nil
	case "1", "high":
		return gpio.High, nil
	default:
		return gpio.Low, errors.Errorf("invalid level %q", s)
	}
}
