package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveValidationCountsByOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveValidation(OutcomeValid, 10*time.Millisecond)
	m.ObserveValidation(OutcomeValid, 5*time.Millisecond)
	m.ObserveValidation(OutcomeInvalidKey, time.Millisecond)

	if got := testutil.ToFloat64(m.validations.WithLabelValues(OutcomeValid)); got != 2 {
		t.Fatalf("expected 2 valid outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.validations.WithLabelValues(OutcomeInvalidKey)); got != 1 {
		t.Fatalf("expected 1 invalid_key outcome, got %v", got)
	}
}

func TestOutcomesArePreRegistered(t *testing.T) {
	m := New(prometheus.NewRegistry())

	if got := testutil.CollectAndCount(m.validations); got != len(outcomes) {
		t.Fatalf("expected %d outcome series, got %d", len(outcomes), got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.ObserveValidation(OutcomeValid, time.Millisecond)
	m.IncRateLimitRejections()
	m.IncRateLimitErrors()
	m.SetRateLimitEntries(3)
	m.IncUsageWriteFailures()
	m.IncUsageReconciled("ok")
}
