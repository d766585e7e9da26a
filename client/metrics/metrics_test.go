package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	okBefore := testutil.ToFloat64(requestsCounter.WithLabelValues("GET", OutcomeOK))
	errBefore := testutil.ToFloat64(requestsCounter.WithLabelValues("GET", OutcomeTransport))

	RecordRequest("GET", OutcomeOK, 10*time.Millisecond)
	RecordRequest("GET", OutcomeTransport, 0)
	RecordRequest("GET", OutcomeTransport, 0)

	if got := testutil.ToFloat64(requestsCounter.WithLabelValues("GET", OutcomeOK)) - okBefore; got != 1 {
		t.Errorf("ok requests delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(requestsCounter.WithLabelValues("GET", OutcomeTransport)) - errBefore; got != 2 {
		t.Errorf("transport errors delta = %v, want 2", got)
	}
}

func TestRecordCapture(t *testing.T) {
	memBefore := testutil.ToFloat64(captureCounter.WithLabelValues(StorageMemory))
	fileBefore := testutil.ToFloat64(captureCounter.WithLabelValues(StorageFile))

	RecordCapture(true, 10)
	RecordCapture(false, 10<<20)
	RecordCapture(false, 20<<20)

	if got := testutil.ToFloat64(captureCounter.WithLabelValues(StorageMemory)) - memBefore; got != 1 {
		t.Errorf("memory captures delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(captureCounter.WithLabelValues(StorageFile)) - fileBefore; got != 2 {
		t.Errorf("file captures delta = %v, want 2", got)
	}
}

func TestRecordContentError(t *testing.T) {
	before := testutil.ToFloat64(contentErrorsCounter)

	RecordContentError()

	if got := testutil.ToFloat64(contentErrorsCounter) - before; got != 1 {
		t.Errorf("content errors delta = %v, want 1", got)
	}
}
