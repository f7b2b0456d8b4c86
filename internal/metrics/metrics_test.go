package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMessagesDroppedTotal_LabelsIndependent(t *testing.T) {
	before := testutil.ToFloat64(MessagesDroppedTotal.WithLabelValues("/started", DropNoNode))
	MessagesDroppedTotal.WithLabelValues("/started", DropNoNode).Inc()
	MessagesDroppedTotal.WithLabelValues("/stopped", DropSendError).Inc()

	got := testutil.ToFloat64(MessagesDroppedTotal.WithLabelValues("/started", DropNoNode))
	if got != before+1 {
		t.Fatalf("got %v, want %v", got, before+1)
	}
}
