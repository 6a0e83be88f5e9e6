package verdin

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts read-path work. A nil *Metrics is valid and records
// nothing, so instrumentation stays optional.
type Metrics struct {
	KeyMaterializations   prometheus.Counter
	ValueMaterializations prometheus.Counter
	CellDecodes           prometheus.Counter
	OverflowReads         prometheus.Counter
	Decompressions        prometheus.Counter
	ChecksumFailures      prometheus.Counter
}

// NewMetrics creates an unregistered metrics set.
func NewMetrics() *Metrics {
	return &Metrics{
		KeyMaterializations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdin_cursor_key_materializations_total",
			Help: "Number of cursor key materializations.",
		}),
		ValueMaterializations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdin_cursor_value_materializations_total",
			Help: "Number of cursor value materializations.",
		}),
		CellDecodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdin_cell_decodes_total",
			Help: "Number of on-page cell decodes.",
		}),
		OverflowReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdin_overflow_reads_total",
			Help: "Number of overflow page reads during payload resolution.",
		}),
		Decompressions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdin_cell_decompressions_total",
			Help: "Number of compressed cell payload decompressions.",
		}),
		ChecksumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verdin_page_checksum_failures_total",
			Help: "Number of page images rejected for checksum mismatch.",
		}),
	}
}

// Register registers all counters with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.KeyMaterializations,
		m.ValueMaterializations,
		m.CellDecodes,
		m.OverflowReads,
		m.Decompressions,
		m.ChecksumFailures,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) incKeyMaterializations() {
	if m != nil {
		m.KeyMaterializations.Inc()
	}
}

func (m *Metrics) incValueMaterializations() {
	if m != nil {
		m.ValueMaterializations.Inc()
	}
}

func (m *Metrics) incCellDecodes() {
	if m != nil {
		m.CellDecodes.Inc()
	}
}

func (m *Metrics) incOverflowReads() {
	if m != nil {
		m.OverflowReads.Inc()
	}
}

func (m *Metrics) incDecompressions() {
	if m != nil {
		m.Decompressions.Inc()
	}
}

func (m *Metrics) incChecksumFailures() {
	if m != nil {
		m.ChecksumFailures.Inc()
	}
}
