package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWizardMetrics(reg)

	m.ObserveStepView("services")
	m.ObserveStepView("services")
	m.ObserveFetch("services", 0.2, nil)
	m.ObserveFetch("employees", 0.4, errors.New("boom"))
	m.ObserveBooking("guest_create", true)
	m.ObserveStale("dates")
	m.ObserveSnapshot("adopted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.stepViews.WithLabelValues("services")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues("employees", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues("services", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("guest_create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleResponses.WithLabelValues("dates")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotsTotal.WithLabelValues("adopted")))
}

func TestWizardMetricsHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWizardMetrics(reg)
	m.ObserveFetch("salon", 0.05, nil)
	m.ObserveFetch("salon", 0.15, nil)

	families, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "salon_booking_wizard_reference_fetch_seconds" {
			require.Len(t, mf.GetMetric(), 1)
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.2, hist.GetSampleSum(), 1e-9)
}

func TestWizardMetricsNilSafe(t *testing.T) {
	var m *WizardMetrics
	m.ObserveStepView("menu")
	m.ObserveFetch("services", 0.1, nil)
	m.ObserveBooking("guest_create", false)
	m.ObserveStale("slots")
	m.ObserveSnapshot("absent")
}
