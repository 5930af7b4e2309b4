package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreatedCountsTickets(t *testing.T) {
	orders := testutil.ToFloat64(ordersTotal)
	tickets := testutil.ToFloat64(ticketsIssued)

	OrderCreated(3)

	assert.Equal(t, orders+1, testutil.ToFloat64(ordersTotal))
	assert.Equal(t, tickets+3, testutil.ToFloat64(ticketsIssued))
}

func TestLabelledCounters(t *testing.T) {
	before := testutil.ToFloat64(purchaseFailures.WithLabelValues("capacity"))
	PurchaseFailed("capacity")
	assert.Equal(t, before+1, testutil.ToFloat64(purchaseFailures.WithLabelValues("capacity")))

	used := testutil.ToFloat64(ticketValidations.WithLabelValues("already_used"))
	TicketValidated("already_used")
	TicketValidated("already_used")
	assert.Equal(t, used+2, testutil.ToFloat64(ticketValidations.WithLabelValues("already_used")))
}

func TestInstrumentRecordsStatus(t *testing.T) {
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	before := testutil.CollectAndCount(requestDuration)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/events/x/purchase", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(requestDuration), before)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `eventgo_http_request_duration_seconds_count{code="409",method="POST"}`))
}
