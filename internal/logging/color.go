package logging

import (
	"bytes"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorGrey    = "\x1b[38;20m"
	colorYellow  = "\x1b[33;20m"
	colorRed     = "\x1b[31;20m"
	colorBoldRed = "\x1b[31;1m"
	colorReset   = "\x1b[0m"
)

// consoleWriter returns f, wrapped in a level colouring writer when f is a
// terminal and the format is text.
func consoleWriter(f *os.File, format string) io.Writer {
	if strings.EqualFold(format, "json") || !term.IsTerminal(int(f.Fd())) {
		return f
	}
	return &colorWriter{w: f}
}

// colorWriter colours whole text handler records by their level field.
// slog handlers emit one record per Write.
type colorWriter struct {
	w io.Writer
}

func (c *colorWriter) Write(p []byte) (int, error) {
	line := bytes.TrimSuffix(p, []byte("\n"))
	var buf bytes.Buffer
	buf.Grow(len(p) + 16)
	buf.WriteString(levelColor(line))
	buf.Write(line)
	buf.WriteString(colorReset)
	buf.WriteByte('\n')
	if _, err := c.w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func levelColor(line []byte) string {
	i := bytes.Index(line, []byte("level="))
	if i < 0 {
		return colorGrey
	}
	level := line[i+len("level="):]
	if end := bytes.IndexByte(level, ' '); end >= 0 {
		level = level[:end]
	}
	switch {
	case bytes.HasPrefix(level, []byte("ERROR+")):
		return colorBoldRed
	case bytes.HasPrefix(level, []byte("ERROR")):
		return colorRed
	case bytes.HasPrefix(level, []byte("WARN")):
		return colorYellow
	default:
		return colorGrey
	}
}
