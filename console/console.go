// Package console writes human readable status and failure text. Every line goes through Line,
// which has a fixed capacity: text that does not fit is refused when the line is built rather
// than cut short on output.
package console

import (
	"fmt"
	"io"

	"go.viam.com/chardev/sys"
)

// MaxLineLen is the capacity of a Line, terminator included.
const MaxLineLen = 128

// A Line is a bounded piece of console text.
type Line struct {
	buf [MaxLineLen]byte
	n   int
}

// NewLine builds a Line, failing with *sys.OverflowError if text is too long.
func NewLine(text string) (Line, error) {
	var l Line
	n, err := sys.Encode(text, l.buf[:])
	if err != nil {
		return Line{}, err
	}
	l.n = n
	return l, nil
}

// Linef formats a Line.
func Linef(format string, args ...interface{}) (Line, error) {
	return NewLine(fmt.Sprintf(format, args...))
}

func (l *Line) String() string {
	return string(l.buf[:l.n])
}

// A Console writes Lines to an output stream, one per row.
type Console struct {
	w io.Writer
}

// New returns a Console writing to w.
func New(w io.Writer) *Console {
	return &Console{w: w}
}

// Print writes l followed by a newline.
func (c *Console) Print(l Line) error {
	var row [MaxLineLen]byte
	n := copy(row[:], l.buf[:l.n])
	row[n] = '\n'
	_, err := c.w.Write(row[:n+1])
	return err
}

// Println builds a Line from text and prints it.
func (c *Console) Println(text string) error {
	l, err := NewLine(text)
	if err != nil {
		return err
	}
	return c.Print(l)
}

// Printf formats a Line and prints it.
func (c *Console) Printf(format string, args ...interface{}) error {
	l, err := Linef(format, args...)
	if err != nil {
		return err
	}
	return c.Print(l)
}
