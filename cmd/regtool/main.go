// Package main is regtool, a command line tool for poking the registers and control lines of an
// SPI register peripheral through character device nodes.
package main

import (
	"os"

	goutils "go.viam.com/utils"

	"go.viam.com/chardev/console"
	"go.viam.com/chardev/logging"
	"go.viam.com/chardev/sys"
)

func main() {
	// Logs go to stderr so they never interleave with register output.
	logger := logging.NewBlankLogger("regtool")
	logger.AddAppender(logging.NewStderrAppender())
	logger.SetLevel(logging.INFO)
	tool := &regtool{
		logger: logger,
		out:    console.New(os.Stdout),
		os:     sys.Host{},
	}
	reporter := console.NewReporter(console.New(os.Stderr), logger)

	if err := newApp(tool).Run(os.Args); err != nil {
		goutils.UncheckedErrorFunc(logger.Sync)
		goutils.UncheckedError(reporter.Fatal(err))
	}
	goutils.UncheckedErrorFunc(logger.Sync)
}
