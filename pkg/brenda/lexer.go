package brenda

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Reference lists on RF lines can be very long; the default 64 KiB scanner
// limit is not enough for the full dump.
const maxLineSize = 4 << 20

type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineSeparator
	lineHeading
	lineContent
)

// line is one classified physical line. For content lines, code holds the
// text before the first tab (empty for continuations) and text the rest.
type line struct {
	kind   lineKind
	number int
	code   string
	text   string
}

func classifyLine(raw string) line {
	raw = strings.TrimSuffix(raw, "\r")
	switch {
	case raw == "":
		return line{kind: lineBlank}
	case strings.HasPrefix(raw, "*"):
		return line{kind: lineComment}
	case strings.HasPrefix(raw, "///"):
		return line{kind: lineSeparator}
	}

	code, rest, ok := strings.Cut(raw, "\t")
	if !ok {
		return line{kind: lineHeading, text: raw}
	}
	return line{kind: lineContent, code: code, text: rest}
}

// lineReader streams classified lines from the dump.
type lineReader struct {
	scanner *bufio.Scanner
	number  int
	current line
}

func newLineReader(r io.Reader) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &lineReader{scanner: scanner}
}

func (lr *lineReader) next() bool {
	if !lr.scanner.Scan() {
		return false
	}
	lr.number++
	lr.current = classifyLine(lr.scanner.Text())
	lr.current.number = lr.number
	return true
}

func (lr *lineReader) line() line { return lr.current }

func (lr *lineReader) err() error {
	if err := lr.scanner.Err(); err != nil {
		return fmt.Errorf("reading line %d: %w", lr.number+1, err)
	}
	return nil
}

// field is one logical tagged value, continuation lines folded in.
type field struct {
	tag   Tag
	value string
	line  int
}

// accumulator folds continuation lines into the pending field value.
type accumulator struct {
	pending field
	active  bool
}

func (a *accumulator) start(tag Tag, value string, lineNumber int) {
	a.pending = field{tag: tag, value: value, line: lineNumber}
	a.active = true
}

// extend appends a continuation line. It reports false when no field is
// pending.
func (a *accumulator) extend(text string) bool {
	if !a.active {
		return false
	}
	a.pending.value += "\n" + text
	return true
}

// take returns the pending field and clears it.
func (a *accumulator) take() (field, bool) {
	if !a.active {
		return field{}, false
	}
	f := a.pending
	a.pending = field{}
	a.active = false
	return f, true
}
