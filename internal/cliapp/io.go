package cliapp

import (
	"fmt"
	"io"
)

// IO bundles the output streams a command writes to.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
}

// NewIO creates an IO writing to out/errOut.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{Out: out, ErrOut: errOut}
}

func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.Out, a...)
}

func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.Out, format, a...)
}

func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.ErrOut, a...)
}
