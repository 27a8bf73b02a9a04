package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersExposed(t *testing.T) {
	SeatsConfirmed.Inc()
	ReconcileOutcomes.WithLabelValues("confirmed").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "skitro_seats_confirmed_total")
	assert.Contains(t, body, `skitro_reconcile_outcomes_total{outcome="confirmed"}`)
}
