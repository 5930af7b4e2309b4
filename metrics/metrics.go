package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ordersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventgo_orders_total",
		Help: "Orders created",
	})

	ticketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventgo_tickets_issued_total",
		Help: "Tickets issued across all orders",
	})

	purchaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventgo_purchase_failures_total",
			Help: "Rejected or failed purchases by reason",
		},
		[]string{"reason"},
	)

	ticketValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventgo_ticket_validations_total",
			Help: "Ticket validation attempts by outcome",
		},
		[]string{"outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventgo_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)
)

func OrderCreated(tickets int) {
	ordersTotal.Inc()
	ticketsIssued.Add(float64(tickets))
}

// PurchaseFailed counts a purchase that produced no order.
func PurchaseFailed(reason string) {
	purchaseFailures.WithLabelValues(reason).Inc()
}

func TicketValidated(outcome string) {
	ticketValidations.WithLabelValues(outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is needed by the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Instrument records request latency by method and status code.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
