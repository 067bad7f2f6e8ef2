package input

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	pauseKey  = 'p'
	interrupt = 0x03 // Ctrl-C; raw mode delivers it as a byte instead of SIGINT
)

// Toggler receives pause requests
type Toggler interface {
	Toggle(source string) bool
}

// Keyboard turns key presses into pause toggles
type Keyboard struct {
	toggler     Toggler
	onInterrupt func()
}

// NewKeyboard creates a keyboard watcher. onInterrupt runs when Ctrl-C is
// read in raw mode and may be nil.
func NewKeyboard(toggler Toggler, onInterrupt func()) *Keyboard {
	return &Keyboard{toggler: toggler, onInterrupt: onInterrupt}
}

// Watch reads single bytes from r until EOF or ctx is done. Every 'p' toggles
// pause; other keys are ignored.
func (k *Keyboard) Watch(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch b {
		case pauseKey:
			k.toggler.Toggle("keyboard")
		case interrupt:
			if k.onInterrupt != nil {
				k.onInterrupt()
			}
		}
	}
}

// RawStdin switches stdin to raw mode when it is a terminal so single key
// presses arrive without Enter. The returned func restores the terminal and
// is safe to call when nothing was changed.
func RawStdin() (restore func(), raw bool, err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, false, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, false, err
	}
	return func() { term.Restore(fd, state) }, true, nil
}

// crlfWriter restores line starts on a terminal in raw mode, where "\n" no
// longer returns the carriage
type crlfWriter struct {
	w io.Writer
}

// CRLFWriter wraps w so each "\n" is written as "\r\n"
func CRLFWriter(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' {
			out = append(out, '\r')
		}
		out = append(out, b)
	}
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
