// Package brenda parses the BRENDA enzyme database flat-file dump into one
// linked record per enzyme classification code.
//
// The dump is a sequence of blocks separated by "///" lines. Each block
// opens with an ID field carrying the EC number, followed by named sections
// of tab-tagged fields. Enzyme and reference IDs are local to their block;
// the parser resolves them into embedded objects before a record is emitted.
package brenda

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/coolbeans/brenda/pkg/taxon"
)

// Cancellation is checked every ctxCheckInterval lines.
const ctxCheckInterval = 4096

// Parser parses BRENDA dumps. A Parser may be reused; warnings accumulate
// across runs until ResetWarnings is called.
type Parser struct {
	grammar  *grammar
	resolver taxon.Resolver
	logger   *log.Logger
	metrics  *Metrics

	mu       sync.Mutex
	warnings []Warning
}

// Option configures a Parser.
type Option func(*Parser)

// WithResolver sets the organism name resolver used for enzyme taxa.
func WithResolver(resolver taxon.Resolver) Option {
	return func(p *Parser) {
		if resolver != nil {
			p.resolver = resolver
		}
	}
}

// WithLogger sets the logger for block progress and data-quality warnings.
func WithLogger(logger *log.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records parser activity into m.
func WithMetrics(m *Metrics) Option {
	return func(p *Parser) { p.metrics = m }
}

// NewParser creates a Parser. Without a resolver every taxon is left
// unresolved; without a logger nothing is logged.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		grammar:  newGrammar(),
		resolver: taxon.None{},
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads a whole dump and returns its records keyed by EC number.
// Nothing is returned if any block fails to parse.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Collection, error) {
	records := NewCollection()
	err := p.Stream(ctx, r, func(record *Record) error {
		p.put(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Stream reads a dump and calls emit with each record once its block is
// closed and linked. An error from emit stops the parse and is returned.
func (p *Parser) Stream(ctx context.Context, r io.Reader, emit func(*Record) error) error {
	return p.stream(ctx, r, 1, emit)
}

// stream parses r, numbering its first line firstLine.
func (p *Parser) stream(ctx context.Context, r io.Reader, firstLine int, emit func(*Record) error) error {
	lr := newLineReader(r)
	lr.number = firstLine - 1
	b := newBuilder(p, emit)

	var acc accumulator
	section := ""

	flush := func() error {
		if f, ok := acc.take(); ok {
			return b.apply(f)
		}
		return nil
	}

	for lr.next() {
		if lr.number%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		ln := lr.line()
		switch ln.kind {
		case lineBlank, lineComment:
			continue

		case lineSeparator:
			if err := flush(); err != nil {
				return err
			}
			if err := b.close(); err != nil {
				return err
			}
			section = ""

		case lineHeading:
			if err := flush(); err != nil {
				return err
			}
			section = ln.text

		case lineContent:
			if ln.code == "" {
				if !acc.extend(ln.text) {
					return &ParseError{
						Kind:   ErrStructural,
						Code:   b.code(),
						Line:   ln.number,
						Value:  ln.text,
						Detail: "continuation line with no field to continue",
					}
				}
				continue
			}

			tag := ParseTag(ln.code)
			if tag == TagUnknown {
				return &ParseError{
					Kind:   ErrStructural,
					Code:   b.code(),
					Tag:    ln.code,
					Line:   ln.number,
					Value:  ln.text,
					Detail: "unknown tag",
				}
			}
			if tag.Section() != "" && section != "" && tag.Section() != section {
				return &ParseError{
					Kind:   ErrStructural,
					Code:   b.code(),
					Tag:    ln.code,
					Line:   ln.number,
					Value:  ln.text,
					Detail: fmt.Sprintf("tag belongs to section %s, found under %s", tag.Section(), section),
				}
			}

			if err := flush(); err != nil {
				return err
			}
			if tag == TagID {
				section = ""
			}
			acc.start(tag, ln.text, ln.number)
		}
	}
	if err := lr.err(); err != nil {
		return err
	}

	if err := flush(); err != nil {
		return err
	}
	return b.close()
}

func (p *Parser) put(records *Collection, record *Record) {
	if records.Put(record) {
		p.warn(Warning{
			Kind:    WarningDuplicateCode,
			Code:    record.Code,
			Message: fmt.Sprintf("block %s appears more than once; keeping the last", record.Code),
		})
	}
}

func (p *Parser) warn(w Warning) {
	p.logger.Warn(w.Message, "kind", w.Kind, "code", w.Code, "tag", w.Tag, "line", w.Line)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings = append(p.warnings, w)
}

// Warnings returns the data-quality problems tolerated so far.
func (p *Parser) Warnings() []Warning {
	p.mu.Lock()
	defer p.mu.Unlock()

	warnings := make([]Warning, len(p.warnings))
	copy(warnings, p.warnings)
	return warnings
}

// ResetWarnings clears the accumulated warnings.
func (p *Parser) ResetWarnings() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings = nil
}
