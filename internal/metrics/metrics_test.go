package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAccountDeletion(t *testing.T) {
	m := New("storefront")

	m.RecordAccountDeletion(OutcomeSuccess)
	m.RecordAccountDeletion(OutcomeRejected)
	m.RecordAccountDeletion(OutcomeRejected)

	if got := testutil.ToFloat64(m.accountDeletions.WithLabelValues(OutcomeSuccess)); got != 1 {
		t.Errorf("success deletions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.accountDeletions.WithLabelValues(OutcomeRejected)); got != 2 {
		t.Errorf("rejected deletions = %v, want 2", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New("storefront")

	m.IncrementInFlight()
	if got := testutil.ToFloat64(m.httpInFlight); got != 1 {
		t.Errorf("in-flight = %v, want 1", got)
	}
	m.DecrementInFlight()

	m.RecordHTTPRequest("gateway", http.MethodPost, "/functions/v1/delete-user", "200", 20*time.Millisecond)
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("gateway", http.MethodPost, "/functions/v1/delete-user", "200")); got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New("storefront")
	m.RecordRoleUpdate(OutcomeSuccess)
	m.ObserveUpstream("auth.get_user", 10*time.Millisecond, nil)
	m.ObserveUpstream("auth.admin_delete_user", 10*time.Millisecond, errors.New("boom"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{
		"storefront_admin_role_updates_total",
		"storefront_upstream_call_duration_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
