package rpccodec

import "github.com/prometheus/client_golang/prometheus"

const (
	metricsNamespace = "rpccodec"

	variantLabelName   = "variant"
	directionLabelName = "direction"
	kindLabelName      = "kind"

	variantBinary = "binary"
	variantText   = "text"

	directionEncode = "encode"
	directionDecode = "decode"
)

var (
	PayloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payloads_total",
			Help:      "number of payloads finalized or opened",
		}, []string{variantLabelName, directionLabelName})

	PayloadBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payload_bytes_total",
			Help:      "size of payloads finalized or opened, in bytes",
		}, []string{variantLabelName, directionLabelName})

	GuardTripsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "guard_trips_total",
			Help:      "claims rejected by the resource guard",
		}, []string{variantLabelName})

	DecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decode_errors_total",
			Help:      "decodes aborted, by error kind",
		}, []string{variantLabelName, kindLabelName})
)

// RegisterMetrics registers the codec collectors with registry.
func RegisterMetrics(registry prometheus.Registerer) {
	registry.MustRegister(PayloadsTotal)
	registry.MustRegister(PayloadBytesTotal)
	registry.MustRegister(GuardTripsTotal)
	registry.MustRegister(DecodeErrorsTotal)
}

// observer records per-stream events into the collectors when enabled.
type observer struct {
	variant string
	enabled bool
}

func (o observer) payload(direction string, size int) {
	if !o.enabled {
		return
	}
	PayloadsTotal.WithLabelValues(o.variant, direction).Inc()
	PayloadBytesTotal.WithLabelValues(o.variant, direction).Add(float64(size))
}

func (o observer) guardTrip() {
	if o.enabled {
		GuardTripsTotal.WithLabelValues(o.variant).Inc()
	}
}

func (o observer) decodeError(err error) {
	if o.enabled {
		DecodeErrorsTotal.WithLabelValues(o.variant, errorKind(err)).Inc()
	}
}
