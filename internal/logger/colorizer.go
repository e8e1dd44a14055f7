package logger

import (
	"bytes"
	"io"
)

const (
	dimPen    = "\033[2m"
	normalPen = "\033[0m"
)

// Colorizer dims the tag of each echoed entry. It is meant to sit between
// SetEcho and a terminal.
type Colorizer struct {
	out io.Writer
}

// NewColorizer wraps out.
func NewColorizer(out io.Writer) Colorizer {
	return Colorizer{out: out}
}

// Write implements io.Writer.
func (c Colorizer) Write(p []byte) (int, error) {
	i := bytes.Index(p, []byte(": "))
	if i < 0 {
		return c.out.Write(p)
	}

	var b bytes.Buffer
	b.WriteString(dimPen)
	b.Write(p[:i+1])
	b.WriteString(normalPen)
	b.Write(p[i+1:])
	if _, err := c.out.Write(b.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
