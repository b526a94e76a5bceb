package reporter

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/OpenTestSolar/testtool-sdk-golang/frame"
)

const metricsNamespace = "testsolar_reporter"

// Metrics counts what a reporter has sent. A nil *Metrics records nothing.
type Metrics struct {
	framesTotal *prometheus.CounterVec
	bytesTotal  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
}

// NewMetrics creates the reporter counters and registers them with reg. If reg is nil
// the counters are created but not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_total",
			Help:      "Count of reports written",
		}, []string{"kind"}),
		bytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_total",
			Help:      "Count of bytes written, including frame headers",
		}, []string{"kind"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Count of reports that could not be written",
		}, []string{"kind", "reason"}),
	}
}

func (m *Metrics) recordWrite(kind string, n int) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(kind).Inc()
	m.bytesTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) recordError(kind string, err error) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(kind, errorReason(err)).Inc()
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, frame.ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrWriteFailure):
		return "write_failure"
	default:
		return "serialize"
	}
}
