package brenda

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts parser activity. A nil *Metrics records nothing.
type Metrics struct {
	BlocksParsed    prometheus.Counter
	Fields          *prometheus.CounterVec
	DanglingEnzymes prometheus.Counter
	UnresolvedTaxa  prometheus.Counter
	FieldsPerBlock  prometheus.Histogram
}

// NewMetrics creates the parser metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		BlocksParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brenda",
			Name:      "blocks_parsed_total",
			Help:      "Enzyme class blocks parsed and linked.",
		}),
		Fields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brenda",
			Name:      "fields_total",
			Help:      "Tagged fields dispatched, by tag code.",
		}, []string{"tag"}),
		DanglingEnzymes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brenda",
			Name:      "dangling_enzyme_refs_total",
			Help:      "Entries dropped because they named an undeclared enzyme.",
		}),
		UnresolvedTaxa: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brenda",
			Name:      "unresolved_taxa_total",
			Help:      "Organism names with no taxonomy ID.",
		}),
		FieldsPerBlock: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "brenda",
			Name:      "block_fields",
			Help:      "Number of fields in each block.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.BlocksParsed, m.Fields, m.DanglingEnzymes, m.UnresolvedTaxa, m.FieldsPerBlock,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeField(tag Tag) {
	if m == nil {
		return
	}
	m.Fields.WithLabelValues(tag.Code()).Inc()
}

func (m *Metrics) observeBlock(fields int) {
	if m == nil {
		return
	}
	m.BlocksParsed.Inc()
	m.FieldsPerBlock.Observe(float64(fields))
}

func (m *Metrics) observeDanglingEnzyme() {
	if m == nil {
		return
	}
	m.DanglingEnzymes.Inc()
}

func (m *Metrics) observeUnresolvedTaxon() {
	if m == nil {
		return
	}
	m.UnresolvedTaxa.Inc()
}
