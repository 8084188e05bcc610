package main

import (
	"github.com/urfave/cli/v2"
)

const (
	flagConfig     = "config"
	flagDebug      = "debug"
	flagSPI        = "spi"
	flagChipSelect = "cs"
	flagIterations = "iterations"
	flagRead       = "read"
	flagWrite      = "write"
)

func newApp(tool *regtool) *cli.App {
	return &cli.App{
		Name:            "regtool",
		Usage:           "read and write registers of an SPI peripheral",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagSPI,
				Usage: "SPI bus device `PATH`, overriding the config",
			},
			&cli.StringFlag{
				Name:  flagChipSelect,
				Usage: "chip select GPIO device `PATH`, overriding the config",
			},
		},
		Before: tool.before,
		Commands: []*cli.Command{
			{
				Name:      "read",
				Usage:     "read registers",
				ArgsUsage: "<address> [count]",
				Action:    tool.readAction,
			},
			{
				Name:      "write",
				Usage:     "write consecutive registers",
				ArgsUsage: "<address> <value> [value...]",
				Action:    tool.writeAction,
			},
			{
				Name:      "dump",
				Usage:     "print a range of registers as a table",
				ArgsUsage: "<address> <count>",
				Action:    tool.dumpAction,
			},
			{
				Name:  "smoke",
				Usage: "repeat a fixed set of register transactions",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagIterations,
						Value: 10,
						Usage: "number of passes",
					},
					&cli.StringSliceFlag{
						Name:  flagWrite,
						Usage: "register write `ADDRESS=VALUE` done on every pass",
					},
					&cli.StringSliceFlag{
						Name:     flagRead,
						Required: true,
						Usage:    "register `ADDRESS` read on every pass",
					},
				},
				Action: tool.smokeAction,
			},
			{
				Name:   "reset",
				Usage:  "pulse the reset line and wait until the peripheral is ready",
				Action: tool.resetAction,
			},
			{
				Name:   "status",
				Usage:  "print the busy and dio1 line levels",
				Action: tool.statusAction,
			},
			{
				Name:            "gpio",
				Usage:           "drive or sample a single GPIO line",
				HideHelpCommand: true,
				Subcommands: []*cli.Command{
					{
						Name:      "get",
						Usage:     "print the level of an input line",
						ArgsUsage: "<path>",
						Action:    tool.gpioGetAction,
					},
					{
						Name:      "set",
						Usage:     "drive an output line",
						ArgsUsage: "<path> <0|1|low|high>",
						Action:    tool.gpioSetAction,
					},
				},
			},
		},
	}
}
