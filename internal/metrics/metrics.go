package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the verification flows.
type Metrics struct {
	factory promauto.Factory

	PresentationsStarted prometheus.Counter
	StartFailures        *prometheus.CounterVec
	CallbacksReceived    *prometheus.CounterVec
	UnknownCallbacks     prometheus.Counter
	CallerCallbacks      *prometheus.CounterVec
	Notifications        *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		factory: f,
		PresentationsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "vid_verifier_presentations_started_total",
			Help: "Presentation requests created with the provider",
		}),
		StartFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vid_verifier_start_failures_total",
			Help: "Start requests that failed, by reason",
		}, []string{"reason"}),
		CallbacksReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vid_verifier_callbacks_received_total",
			Help: "Provider callbacks correlated to a live request, by status",
		}, []string{"status"}),
		UnknownCallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "vid_verifier_callbacks_unknown_total",
			Help: "Provider callbacks for unknown or expired requests",
		}),
		CallerCallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vid_verifier_caller_callbacks_total",
			Help: "Caller result deliveries, by result (delivered, failed, skipped)",
		}, []string{"result"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vid_verifier_notifications_total",
			Help: "Side-channel notifications, by kind and result",
		}, []string{"kind", "result"}),
	}
}

// TrackRequests exposes the number of held correlation records as a gauge.
func (m *Metrics) TrackRequests(count func() int) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "vid_verifier_tracked_requests",
		Help: "Correlation records currently held, including expired ones awaiting a sweep",
	}, func() float64 { return float64(count()) })
}

func (m *Metrics) IncrementStarted() {
	m.PresentationsStarted.Inc()
}

func (m *Metrics) IncrementStartFailure(reason string) {
	m.StartFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementCallback(status string) {
	m.CallbacksReceived.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementUnknownCallback() {
	m.UnknownCallbacks.Inc()
}

func (m *Metrics) IncrementCallerCallback(result string) {
	m.CallerCallbacks.WithLabelValues(result).Inc()
}

// ObserveNotification counts a notification attempt by its outcome.
func (m *Metrics) ObserveNotification(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}
