package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// LineReader delivers input lines and honours context cancellation while
// waiting. One goroutine owns the underlying reader for its lifetime.
type LineReader struct {
	lines chan string
	err   error
}

// NewLineReader starts reading r line by line.
func NewLineReader(r io.Reader) *LineReader {
	l := &LineReader{lines: make(chan string)}
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			l.lines <- sc.Text()
		}
		l.err = sc.Err()
		close(l.lines)
	}()
	return l
}

// Next returns the next line. It returns io.EOF once input is exhausted.
func (l *LineReader) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-l.lines:
		if !ok {
			if l.err != nil {
				return "", l.err
			}
			return "", io.EOF
		}
		return line, nil
	}
}

// Prompter asks yes/no questions on the console. It satisfies
// encounter.Confirmer.
type Prompter struct {
	lines *LineReader
	out   io.Writer
}

// NewPrompter creates a Prompter sharing lines with the command loop.
func NewPrompter(lines *LineReader, out io.Writer) *Prompter {
	return &Prompter{lines: lines, out: out}
}

// Confirm writes prompt and reads an answer. Only "y" or "yes" confirm.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s [y/N] ", prompt); err != nil {
		return false, err
	}
	answer, err := p.lines.Next(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
