package console

import (
	"os"

	"github.com/pkg/errors"

	"go.viam.com/chardev/logging"
	"go.viam.com/chardev/sys"
)

// ExitCodeFatal is the process exit code after a fatal failure.
const ExitCodeFatal = 1

// A Reporter prints failures. It reports in full only once: a failure reported while a previous
// one is being (or has been) reported gets a fixed line instead, so a failure inside reporting
// cannot recurse.
type Reporter struct {
	console *Console
	logger  logging.Logger
	// Exit ends the process from Fatal; it is os.Exit unless replaced.
	Exit func(code int)

	reporting bool
}

// NewReporter returns a Reporter printing to c.
func NewReporter(c *Console, logger logging.Logger) *Reporter {
	return &Reporter{console: c, logger: logger, Exit: os.Exit}
}

// Reporting reports whether a failure has already been reported.
func (r *Reporter) Reporting() bool {
	return r.reporting
}

// Report prints err as a single bounded line tagged with its kind. A message too long for a
// line is replaced by its kind alone.
func (r *Reporter) Report(err error) error {
	if err == nil {
		return nil
	}
	if r.reporting {
		return r.console.Println("error: failure while reporting a failure")
	}
	r.reporting = true

	kind := sys.KindOf(err)
	// The console line is the user facing report; the log keeps the untruncated error.
	r.logger.Debugw("failure", "kind", kind.String(), "error", err)

	line, lineErr := Linef("error: [%s] %v", kind, err)
	if lineErr != nil {
		var overflow *sys.OverflowError
		if !errors.As(lineErr, &overflow) {
			return lineErr
		}
		line, lineErr = Linef("error: [%s] (%d byte message does not fit)", kind, len(err.Error()))
		if lineErr != nil {
			return lineErr
		}
	}
	return r.console.Print(line)
}

// Fatal reports err and ends the process. It returns only if Exit does.
func (r *Reporter) Fatal(err error) error {
	reportErr := r.Report(err)
	r.Exit(ExitCodeFatal)
	return reportErr
}
