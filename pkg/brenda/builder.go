package brenda

import (
	"fmt"
)

type blockState int

const (
	stateIdle blockState = iota
	stateOpen
	stateClosing
)

// builder owns the record of the block currently being parsed. It receives
// completed fields, dispatches them to their grammar and merges the result
// into the record.
type builder struct {
	p      *Parser
	state  blockState
	record *Record
	fields int
	emit   func(*Record) error
}

func newBuilder(p *Parser, emit func(*Record) error) *builder {
	return &builder{p: p, emit: emit}
}

func (b *builder) code() string {
	if b.record == nil {
		return ""
	}
	return b.record.Code
}

func (b *builder) grammarError(f field) error {
	return &ParseError{
		Kind:  ErrGrammar,
		Code:  b.code(),
		Tag:   f.tag.Code(),
		Line:  f.line,
		Value: f.value,
	}
}

func (b *builder) structuralError(f field, detail string) error {
	return &ParseError{
		Kind:   ErrStructural,
		Code:   b.code(),
		Tag:    f.tag.Code(),
		Line:   f.line,
		Value:  f.value,
		Detail: detail,
	}
}

// apply dispatches one completed field.
func (b *builder) apply(f field) error {
	if f.tag == TagID {
		return b.open(f)
	}
	if b.state != stateOpen {
		return b.structuralError(f, "field outside of an enzyme class block")
	}

	b.fields++
	b.p.metrics.observeField(f.tag)

	g := b.p.grammar
	switch f.tag {
	case TagProtein:
		entry, ok := g.parseProtein(f.value)
		if !ok {
			return b.grammarError(f)
		}
		b.record.upsertEnzyme(entry, func(name string) *Taxon {
			return b.resolveTaxon(f, name)
		})

	case TagRecommendedName:
		b.record.Name = foldLines(f.value)

	case TagSystematicName:
		b.record.SystematicName = foldLines(f.value)

	case TagSourceTissue, TagLocalization:
		entry, ok := g.parseAnnotation(f.value)
		if !ok {
			return b.grammarError(f)
		}
		for _, id := range entry.enzymeIDs {
			if !b.record.annotate(f.tag, id, entry) {
				b.danglingEnzyme(f, id)
			}
		}

	case TagSubstrateProduct:
		entry, ok := g.parseSubstrateProduct(f.value)
		if !ok {
			return b.grammarError(f)
		}
		// Reactions keep enzyme IDs unchecked: the enzymes they name may be
		// declared further down the block.
		b.record.Reactions = append(b.record.Reactions, &Reaction{
			Equation:   entry.equation,
			Reversible: entry.reversible,
			Enzymes:    entry.enzymeIDs,
		})

	case TagTurnoverNumber, TagKmValue:
		entry, ok := g.parseKinetic(f.value)
		if !ok {
			return b.grammarError(f)
		}
		datum, missing := b.record.newKineticDatum(f.tag, entry)
		for _, id := range missing {
			b.danglingEnzyme(f, id)
		}
		if f.tag == TagTurnoverNumber {
			b.record.KcatValues = append(b.record.KcatValues, datum)
		} else {
			b.record.KmValues = append(b.record.KmValues, datum)
		}

	case TagReference:
		ref, ok := g.parseReference(f.value)
		if !ok {
			return b.grammarError(f)
		}
		b.record.refs[ref.id] = ref

	case TagActivatingCompound, TagApplication, TagCofactor, TagCloned,
		TagCrystallization, TagEngineering, TagExpression, TagGeneralInformation,
		TagGeneralStability, TagIC50Value, TagInhibitors, TagKiValue,
		TagKcatKmValue, TagMetalsIons, TagMolecularWeight,
		TagNaturalSubstrateProduct, TagOxidationStability,
		TagOrganicSolventStability, TagPHOptimum, TagPHRange, TagPHStability,
		TagPIValue, TagPosttranslationalModification, TagPurification,
		TagReaction, TagRenatured, TagReactionType, TagSpecificActivity,
		TagStorageStability, TagSubunits, TagSynonyms, TagTemperatureOptimum,
		TagTemperatureRange, TagTemperatureStability:
		// recognised, not extracted

	default:
		return b.structuralError(f, "unknown tag")
	}
	return nil
}

// open starts a new block from a classification code field, closing the
// previous block first if it is still open.
func (b *builder) open(f field) error {
	entry, ok := b.p.grammar.parseClassification(f.value)
	if !ok {
		return b.grammarError(f)
	}
	if b.state == stateOpen {
		if err := b.close(); err != nil {
			return err
		}
	}

	b.record = newRecord(entry.code)
	b.record.Comments = entry.comments
	b.fields = 0
	b.state = stateOpen
	b.p.logger.Debug("opened block", "code", entry.code, "line", f.line)
	return nil
}

// close links the open record and hands it to emit. Closing with no open
// block is a no-op.
func (b *builder) close() error {
	if b.state != stateOpen {
		return nil
	}
	b.state = stateClosing
	record := b.record

	if err := record.link(); err != nil {
		return err
	}

	b.p.metrics.observeBlock(b.fields)
	b.record = nil
	b.state = stateIdle
	return b.emit(record)
}

func (b *builder) resolveTaxon(f field, name string) *Taxon {
	if name == "" {
		return nil
	}
	taxon := &Taxon{Name: name}
	if id, ok := b.p.resolver.Resolve(name); ok {
		taxon.ID = &id
		return taxon
	}
	b.p.metrics.observeUnresolvedTaxon()
	b.p.warn(Warning{
		Kind:    WarningUnresolvedTaxon,
		Code:    b.code(),
		Tag:     f.tag.Code(),
		Line:    f.line,
		Message: fmt.Sprintf("no taxonomy ID for organism %q", name),
	})
	return taxon
}

func (b *builder) danglingEnzyme(f field, id string) {
	b.p.metrics.observeDanglingEnzyme()
	b.p.warn(Warning{
		Kind:    WarningDanglingEnzyme,
		Code:    b.code(),
		Tag:     f.tag.Code(),
		Line:    f.line,
		Message: fmt.Sprintf("%s does not have enzyme with id %s", b.code(), id),
	})
}

// upsertEnzyme declares an enzyme or merges a repeated declaration into the
// existing one. The taxon callback is only invoked when the enzyme has no
// taxon yet.
func (r *Record) upsertEnzyme(entry proteinEntry, taxon func(name string) *Taxon) *Enzyme {
	enzyme, ok := r.Enzymes[entry.id]
	if !ok {
		enzyme = &Enzyme{
			id:                       entry.id,
			Identifiers:              make([]Identifier, 0, 1),
			Tissues:                  make([]*Annotation, 0),
			SubcellularLocalizations: make([]*Annotation, 0),
		}
		r.Enzymes[entry.id] = enzyme
	}

	if entry.identifier != nil && !enzyme.hasIdentifier(*entry.identifier) {
		enzyme.Identifiers = append(enzyme.Identifiers, *entry.identifier)
	}
	if enzyme.Taxon == nil && entry.organism != "" {
		enzyme.Taxon = taxon(entry.organism)
	}
	enzyme.refIDs = unionIDs(enzyme.refIDs, entry.refIDs)
	return enzyme
}

func (e *Enzyme) hasIdentifier(id Identifier) bool {
	for _, existing := range e.Identifiers {
		if existing == id {
			return true
		}
	}
	return false
}

// annotate attaches a tissue or localization to a declared enzyme. It
// reports false when the enzyme is not declared in this block.
func (r *Record) annotate(tag Tag, enzymeID string, entry annotationEntry) bool {
	enzyme, ok := r.Enzymes[enzymeID]
	if !ok {
		return false
	}
	annotation := &Annotation{
		Name:   entry.name,
		refIDs: append([]string(nil), entry.refIDs...),
	}
	if tag == TagSourceTissue {
		enzyme.Tissues = append(enzyme.Tissues, annotation)
	} else {
		enzyme.SubcellularLocalizations = append(enzyme.SubcellularLocalizations, annotation)
	}
	return true
}

// newKineticDatum builds a kcat or Km datum, resolving its enzymes against
// the block. IDs that name no declared enzyme are returned as missing.
func (r *Record) newKineticDatum(tag Tag, entry kineticEntry) (*KineticDatum, []string) {
	units := UnitsKm
	if tag == TagTurnoverNumber {
		units = UnitsKcat
	}
	datum := &KineticDatum{
		Substrate:      entry.substrate,
		Value:          entry.value,
		Units:          units,
		Enzymes:        make([]*Enzyme, 0, len(entry.enzymeIDs)),
		WildType:       entry.wildType,
		GeneticVariant: entry.geneticVariant,
		Temperature:    entry.temperature,
		PH:             entry.ph,
		refIDs:         entry.refIDs,
	}

	var missing []string
	for _, id := range entry.enzymeIDs {
		enzyme, ok := r.Enzymes[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		datum.Enzymes = append(datum.Enzymes, enzyme)
	}
	return datum, missing
}
