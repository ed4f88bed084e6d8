package brenda

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Field separators in the exchange format are written as a space, a tab or
// a line break depending on where the dump wrapped the value, so every
// grammar matches separators as whitespace runs.
type grammar struct {
	classification   *regexp.Regexp
	protein          *regexp.Regexp
	annotation       *regexp.Regexp
	substrateProduct *regexp.Regexp
	kinetic          *regexp.Regexp
	reference        *regexp.Regexp
	citation         *regexp.Regexp
	authorSeparator  *regexp.Regexp
	temperature      *regexp.Regexp
	ph               *regexp.Regexp
}

func newGrammar() *grammar {
	return &grammar{
		classification: regexp.MustCompile(`(?s)^([0-9.]+)(?:\s+\((.*?)\))?\s*$`),
		protein: regexp.MustCompile(`(?s)^#(\d+)#\s+(.*?)` +
			`(?:\s+([A-Z][A-Z0-9.]+)\s+(GenBank|UniProt|SwissProt|))?` +
			`(?:\s+\(.*?\))?` +
			`\s+<([0-9,\s]+)>\s*$`),
		// A comment group needs whitespace before its parenthesis, so a name
		// that starts with one, such as "(S)-lactate", stays whole.
		annotation: regexp.MustCompile(`(?s)^#(.*?)#\s+(.*?)(?:\s+\(.*?\))?\s+<([0-9,\s]+)>\s*$`),
		substrateProduct: regexp.MustCompile(`(?s)^#(.*?)#\s+(.*?)` +
			`(?:\s+\(.*?\))?` +
			`(?:\s+\|.*?\|)?` +
			`(?:\s+\{(r?)\})?` +
			`\s+<([0-9,\s]+)>\s*$`),
		kinetic: regexp.MustCompile(`(?s)^#(.*?)#\s+` +
			`((?:\d+(?:\.\d+)?)?-?(?:\d+(?:\.\d+)?)?)\s+` +
			`\{(.*?)\}\s+` +
			`(?:\((.*?)\)\s*)?` +
			`<([0-9,\s]+)>\s*$`),
		reference:       regexp.MustCompile(`(?s)^<(\d+)>\s+(.*?)\s+\{(Pubmed):(.*?)\}(?:\s+\((.*?)\))?\s*$`),
		citation:        regexp.MustCompile(`^(.*?):\s(.*?)\.\s(.*?)\s\((\d+)\)\s(.*?),\s(.*?)\.$`),
		authorSeparator: regexp.MustCompile(`;\s`),
		temperature:     regexp.MustCompile(`(\d+(?:\.\d+)?)°C`),
		ph:              regexp.MustCompile(`pH\s(\d+(?:\.\d+)?)`),
	}
}

type classificationEntry struct {
	code     string
	comments string
}

type proteinEntry struct {
	id         string
	organism   string
	identifier *Identifier
	refIDs     []string
}

type annotationEntry struct {
	enzymeIDs []string
	name      string
	refIDs    []string
}

type reactionEntry struct {
	enzymeIDs  []string
	equation   string
	reversible bool
}

type kineticEntry struct {
	enzymeIDs      []string
	value          string
	substrate      string
	wildType       *bool
	geneticVariant *bool
	temperature    *float64
	ph             *float64
	refIDs         []string
}

func (g *grammar) parseClassification(value string) (classificationEntry, bool) {
	m := g.classification.FindStringSubmatch(value)
	if m == nil {
		return classificationEntry{}, false
	}
	return classificationEntry{code: m[1], comments: foldLines(m[2])}, true
}

func (g *grammar) parseProtein(value string) (proteinEntry, bool) {
	m := g.protein.FindStringSubmatch(value)
	if m == nil {
		return proteinEntry{}, false
	}
	entry := proteinEntry{
		id:       m[1],
		organism: foldLines(m[2]),
		refIDs:   sortIDs(splitIDs(m[5])),
	}
	if m[3] != "" {
		entry.identifier = &Identifier{Namespace: m[4], ID: m[3]}
	}
	return entry, true
}

func (g *grammar) parseAnnotation(value string) (annotationEntry, bool) {
	m := g.annotation.FindStringSubmatch(value)
	if m == nil {
		return annotationEntry{}, false
	}
	return annotationEntry{
		enzymeIDs: splitIDs(m[1]),
		name:      foldLines(m[2]),
		refIDs:    splitIDs(m[3]),
	}, true
}

func (g *grammar) parseSubstrateProduct(value string) (reactionEntry, bool) {
	m := g.substrateProduct.FindStringSubmatch(value)
	if m == nil {
		return reactionEntry{}, false
	}
	return reactionEntry{
		enzymeIDs:  splitIDs(m[1]),
		equation:   foldLines(m[2]),
		reversible: m[3] == "r",
	}, true
}

func (g *grammar) parseKinetic(value string) (kineticEntry, bool) {
	m := g.kinetic.FindStringSubmatch(value)
	if m == nil {
		return kineticEntry{}, false
	}
	entry := kineticEntry{
		enzymeIDs: splitIDs(m[1]),
		value:     m[2],
		substrate: foldLines(m[3]),
		refIDs:    splitIDs(m[5]),
	}
	if comment := foldLines(m[4]); comment != "" {
		g.mineKineticComment(&entry, comment)
	}
	return entry, true
}

func (g *grammar) mineKineticComment(entry *kineticEntry, comment string) {
	if strings.Contains(comment, "wild-type") || strings.Contains(comment, "native") {
		entry.wildType = boolPtr(true)
	}
	if strings.Contains(comment, "mutant") {
		entry.geneticVariant = boolPtr(true)
	}
	if m := g.temperature.FindStringSubmatch(comment); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			entry.temperature = &v
		}
	}
	if m := g.ph.FindStringSubmatch(comment); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			entry.ph = &v
		}
	}
}

func (g *grammar) parseReference(value string) (*Reference, bool) {
	m := g.reference.FindStringSubmatch(value)
	if m == nil {
		return nil, false
	}
	citation := strings.NewReplacer("\n", " ", "\t", " ").Replace(m[2])
	c := g.citation.FindStringSubmatch(citation)
	if c == nil {
		return nil, false
	}
	year, err := strconv.Atoi(c[4])
	if err != nil {
		return nil, false
	}

	return &Reference{
		id:      m[1],
		Authors: g.authorSeparator.Split(c[1], -1),
		Title:   c[2],
		Journal: c[3],
		Year:    year,
		Volume:  c[5],
		Pages:   c[6],
		Identifier: Identifier{
			Namespace: m[3],
			ID:        m[4],
		},
		Comments: foldLines(m[5]),
	}, true
}

// foldLines joins continuation lines with spaces and trims the result.
func foldLines(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// splitIDs parses a comma separated ID list that may have been wrapped onto
// several lines. Duplicates are dropped, keeping first occurrence order.
func splitIDs(s string) []string {
	return dedupe(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	}))
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// sortIDs orders numeric IDs by value, falling back to string order.
func sortIDs(ids []string) []string {
	sort.SliceStable(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// unionIDs merges two ID lists without duplicates, in numeric order.
func unionIDs(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return sortIDs(dedupe(merged))
}

func boolPtr(b bool) *bool { return &b }
