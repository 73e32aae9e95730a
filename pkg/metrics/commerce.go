package metrics

import "github.com/prometheus/client_golang/prometheus"

// CommerceMetrics counts checkout, payment and event dispatch outcomes.
type CommerceMetrics struct {
	ordersCreated     prometheus.Counter
	checkoutRejected  *prometheus.CounterVec
	paymentsRecorded  *prometheus.CounterVec
	returnsCompleted  prometheus.Counter
	eventsDispatched  *prometheus.CounterVec
	eventsDropped     *prometheus.CounterVec
	eventsQueueLength prometheus.Gauge
}

// NewCommerceMetrics registers the commerce metrics on reg. A nil registerer
// yields a no-op recorder.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	m := &CommerceMetrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders assembled from carts.",
		}),
		checkoutRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "checkout_rejected_total",
			Help:      "Checkouts rejected by a business rule.",
		}, []string{"reason"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "recorded_total",
			Help:      "Payment outcomes recorded against orders.",
		}, []string{"outcome"}),
		returnsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "returns",
			Name:      "completed_total",
			Help:      "Returns completed with a refund.",
		}),
		eventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dispatched_total",
			Help:      "Domain events written to the outbox.",
		}, []string{"event_type"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Domain events dropped before reaching the outbox.",
		}, []string{"event_type", "cause"}),
		eventsQueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "queue_length",
			Help:      "Events waiting in the dispatcher queue.",
		}),
	}
	reg.MustRegister(
		m.ordersCreated,
		m.checkoutRejected,
		m.paymentsRecorded,
		m.returnsCompleted,
		m.eventsDispatched,
		m.eventsDropped,
		m.eventsQueueLength,
	)
	return m
}

func (m *CommerceMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *CommerceMetrics) IncCheckoutRejected(reason string) {
	if m == nil || m.checkoutRejected == nil {
		return
	}
	m.checkoutRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *CommerceMetrics) IncPaymentRecorded(outcome string) {
	if m == nil || m.paymentsRecorded == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CommerceMetrics) IncReturnCompleted() {
	if m == nil || m.returnsCompleted == nil {
		return
	}
	m.returnsCompleted.Inc()
}

func (m *CommerceMetrics) IncEventDispatched(eventType string) {
	if m == nil || m.eventsDispatched == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *CommerceMetrics) IncEventDropped(eventType, cause string) {
	if m == nil || m.eventsDropped == nil {
		return
	}
	m.eventsDropped.WithLabelValues(normalizeLabel(eventType), normalizeLabel(cause)).Inc()
}

func (m *CommerceMetrics) SetEventQueueLength(n int) {
	if m == nil || m.eventsQueueLength == nil {
		return
	}
	m.eventsQueueLength.Set(float64(n))
}
