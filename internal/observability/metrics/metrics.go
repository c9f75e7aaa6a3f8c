package metrics

import "github.com/prometheus/client_golang/prometheus"

// WizardMetrics exposes counters/histograms for the booking wizard.
type WizardMetrics struct {
	stepViews      *prometheus.CounterVec
	fetchTotal     *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	bookingsTotal  *prometheus.CounterVec
	staleResponses *prometheus.CounterVec
	snapshotsTotal *prometheus.CounterVec
}

func NewWizardMetrics(reg prometheus.Registerer) *WizardMetrics {
	m := &WizardMetrics{
		stepViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "booking_wizard",
			Name:      "step_views_total",
			Help:      "Wizard step views by step",
		}, []string{"step"}),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "booking_wizard",
			Name:      "reference_fetch_total",
			Help:      "Reference data fetches against the salon API",
		}, []string{"resource", "status"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "booking_wizard",
			Name:      "reference_fetch_seconds",
			Help:      "Latency of reference data fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "booking_wizard",
			Name:      "bookings_submitted_total",
			Help:      "Booking submissions by variant and outcome",
		}, []string{"variant", "status"}),
		staleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "booking_wizard",
			Name:      "stale_responses_total",
			Help:      "Availability responses discarded because a newer request superseded them",
		}, []string{"kind"}),
		snapshotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "booking_wizard",
			Name:      "snapshots_total",
			Help:      "Persisted snapshot lookups on session open",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.stepViews, m.fetchTotal, m.fetchLatency, m.bookingsTotal, m.staleResponses, m.snapshotsTotal)
	return m
}

func (m *WizardMetrics) ObserveStepView(step string) {
	if m == nil {
		return
	}
	m.stepViews.WithLabelValues(step).Inc()
}

// ObserveFetch records one reference fetch; err decides the status label.
func (m *WizardMetrics) ObserveFetch(resource string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetchTotal.WithLabelValues(resource, status).Inc()
	m.fetchLatency.WithLabelValues(resource).Observe(seconds)
}

func (m *WizardMetrics) ObserveBooking(variant string, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.bookingsTotal.WithLabelValues(variant, status).Inc()
}

func (m *WizardMetrics) ObserveStale(kind string) {
	if m == nil {
		return
	}
	m.staleResponses.WithLabelValues(kind).Inc()
}

func (m *WizardMetrics) ObserveSnapshot(result string) {
	if m == nil {
		return
	}
	m.snapshotsTotal.WithLabelValues(result).Inc()
}
