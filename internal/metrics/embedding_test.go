package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEmbedding(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()

	ObserveEmbedding("obs-test", "m1", OutcomeOK, 20*time.Millisecond, 7)
	ObserveEmbedding("obs-test", "m1", OutcomeOK, 30*time.Millisecond, 0)
	ObserveEmbedding("obs-test", "m1", OutcomeTimeout, time.Second, 99)

	if got := testutil.ToFloat64(EmbeddingCalls.WithLabelValues("obs-test", "m1", OutcomeOK)); got != 2 {
		t.Errorf("ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(EmbeddingCalls.WithLabelValues("obs-test", "m1", OutcomeTimeout)); got != 1 {
		t.Errorf("timeout calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(EmbeddingTokens.WithLabelValues("obs-test", "m1")); got != 7 {
		t.Errorf("tokens = %v, failed calls must not add tokens", got)
	}
}
