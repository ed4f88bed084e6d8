package brenda

import (
	"errors"
	"fmt"
)

var (
	// ErrStructural reports input that does not follow the exchange format:
	// a tag under the wrong section, an unknown tag, a field outside any
	// block, or a reference cited but never defined.
	ErrStructural = errors.New("structural violation")

	// ErrGrammar reports a field value that does not match its tag's grammar.
	ErrGrammar = errors.New("grammar mismatch")
)

// ParseError carries the context of a fatal parse failure.
type ParseError struct {
	Kind   error
	Code   string
	Tag    string
	Line   int
	Value  string
	Detail string
}

// Error formats the kind with its position and detail.
func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Code != "" {
		msg += " in " + e.Code
	}
	if e.Tag != "" {
		msg += " (" + e.Tag + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Value != "" {
		msg += fmt.Sprintf(": %q", e.Value)
	}
	return msg
}

// Unwrap returns the error kind so errors.Is matches the sentinel.
func (e *ParseError) Unwrap() error { return e.Kind }

// WarningKind classifies tolerated data-quality problems.
type WarningKind string

// Warning kinds.
const (
	WarningDanglingEnzyme  WarningKind = "dangling_enzyme"
	WarningUnresolvedTaxon WarningKind = "unresolved_taxon"
	WarningDuplicateCode   WarningKind = "duplicate_code"
)

// Warning records a data-quality problem that did not stop the parse.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Code    string      `json:"code"`
	Tag     string      `json:"tag,omitempty"`
	Line    int         `json:"line,omitempty"`
	Message string      `json:"message"`
}
