package brenda

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Units attached to turnover numbers and Michaelis constants.
const (
	UnitsKcat = "s^-1"
	UnitsKm   = "mM"
)

// Record is the fully linked document for one enzyme classification code.
type Record struct {
	Code           string             `json:"code"`
	Name           string             `json:"name,omitempty"`
	SystematicName string             `json:"systematic_name,omitempty"`
	Comments       string             `json:"comments,omitempty"`
	Reactions      []*Reaction        `json:"reactions"`
	Enzymes        map[string]*Enzyme `json:"enzymes"`
	KcatValues     []*KineticDatum    `json:"kcat_values"`
	KmValues       []*KineticDatum    `json:"km_values"`

	// refs is the block-local reference table, dropped once linking completes.
	refs map[string]*Reference
}

func newRecord(code string) *Record {
	return &Record{
		Code:       code,
		Reactions:  make([]*Reaction, 0),
		Enzymes:    make(map[string]*Enzyme),
		KcatValues: make([]*KineticDatum, 0),
		KmValues:   make([]*KineticDatum, 0),
		refs:       make(map[string]*Reference),
	}
}

// RecordStats summarizes a record for listings and manifests.
type RecordStats struct {
	Enzymes       int `json:"enzymes"`
	Reactions     int `json:"reactions"`
	KcatValues    int `json:"kcat_values"`
	KmValues      int `json:"km_values"`
	Tissues       int `json:"tissues"`
	Localizations int `json:"localizations"`
	References    int `json:"references"`
}

// referenceKey identifies a citation by content, so that a record decoded
// from JSON, where shared references are duplicated, counts the same.
type referenceKey struct {
	Identifier
	title, journal, volume, pages string
	year                          int
}

// Stats counts the entities in the record. References are counted once
// each, however many entities cite them.
func (r *Record) Stats() RecordStats {
	stats := RecordStats{
		Enzymes:    len(r.Enzymes),
		Reactions:  len(r.Reactions),
		KcatValues: len(r.KcatValues),
		KmValues:   len(r.KmValues),
	}

	seen := make(map[referenceKey]struct{})
	count := func(refs []*Reference) {
		for _, ref := range refs {
			seen[referenceKey{
				Identifier: ref.Identifier,
				title:      ref.Title,
				journal:    ref.Journal,
				volume:     ref.Volume,
				pages:      ref.Pages,
				year:       ref.Year,
			}] = struct{}{}
		}
	}
	for _, enzyme := range r.Enzymes {
		stats.Tissues += len(enzyme.Tissues)
		stats.Localizations += len(enzyme.SubcellularLocalizations)
		count(enzyme.References)
		for _, tissue := range enzyme.Tissues {
			count(tissue.References)
		}
		for _, loc := range enzyme.SubcellularLocalizations {
			count(loc.References)
		}
	}
	for _, datum := range r.KcatValues {
		count(datum.References)
	}
	for _, datum := range r.KmValues {
		count(datum.References)
	}
	stats.References = len(seen)
	return stats
}

// Identifier is a cross-reference into an external database.
type Identifier struct {
	Namespace string `json:"namespace"`
	ID        string `json:"id"`
}

// Taxon names the organism an enzyme was characterized in. ID is nil when
// the name could not be resolved.
type Taxon struct {
	Name string `json:"name"`
	ID   *int   `json:"id"`
}

// Enzyme is one organism-specific enzyme variant declared by a PR field.
type Enzyme struct {
	Identifiers              []Identifier  `json:"identifiers"`
	Taxon                    *Taxon        `json:"taxon"`
	Tissues                  []*Annotation `json:"tissues"`
	SubcellularLocalizations []*Annotation `json:"subcellular_localizations"`
	References               []*Reference  `json:"references"`

	id     string
	refIDs []string
}

// Annotation is a tissue or subcellular localization attributed to an enzyme.
type Annotation struct {
	Name       string       `json:"name"`
	References []*Reference `json:"references"`

	refIDs []string
}

// Reaction is a substrate/product equation. Enzymes holds local IDs only.
type Reaction struct {
	Equation   string   `json:"equation"`
	Reversible bool     `json:"reversible"`
	Enzymes    []string `json:"enzymes"`
}

// KineticDatum is a turnover number or Michaelis constant. Value keeps the
// exact text of the dump, either a single number or a "low-high" range.
type KineticDatum struct {
	Substrate      string       `json:"substrate"`
	Value          string       `json:"value"`
	Units          string       `json:"units"`
	Enzymes        []*Enzyme    `json:"enzymes"`
	WildType       *bool        `json:"wild_type"`
	GeneticVariant *bool        `json:"genetic_variant"`
	Temperature    *float64     `json:"temperature"`
	PH             *float64     `json:"ph"`
	References     []*Reference `json:"references"`

	refIDs []string
}

// Reference is a literature citation from an RF field.
type Reference struct {
	Authors    []string   `json:"authors"`
	Title      string     `json:"title"`
	Journal    string     `json:"journal"`
	Volume     string     `json:"volume"`
	Pages      string     `json:"pages"`
	Year       int        `json:"year"`
	Identifier Identifier `json:"identifier"`
	Comments   string     `json:"comments,omitempty"`

	id string
}

// Collection holds parsed records keyed by classification code, remembering
// the order codes were first seen.
type Collection struct {
	order   []string
	records map[string]*Record
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{records: make(map[string]*Record)}
}

// Put adds a record, replacing any previous record with the same code.
// It reports whether a record was replaced.
func (c *Collection) Put(record *Record) bool {
	_, replaced := c.records[record.Code]
	if !replaced {
		c.order = append(c.order, record.Code)
	}
	c.records[record.Code] = record
	return replaced
}

// Get returns the record for an EC code.
func (c *Collection) Get(code string) (*Record, bool) {
	record, ok := c.records[code]
	return record, ok
}

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.order) }

// Codes returns the classification codes in input order.
func (c *Collection) Codes() []string {
	codes := make([]string, len(c.order))
	copy(codes, c.order)
	return codes
}

// Records returns the records in input order.
func (c *Collection) Records() []*Record {
	records := make([]*Record, 0, len(c.order))
	for _, code := range c.order {
		records = append(records, c.records[code])
	}
	return records
}

// MarshalJSON encodes the collection as an object keyed by code, in input order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, code := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(code)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(c.records[code])
		if err != nil {
			return nil, fmt.Errorf("encoding record %s: %w", code, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
