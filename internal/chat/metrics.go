package chat

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the registry's Prometheus collectors.
type Metrics struct {
	Connections prometheus.Gauge
	Handshakes  *prometheus.CounterVec
	Messages    *prometheus.CounterVec
	Dropped     prometheus.Counter
}

// NewMetrics creates the registry collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gophchat_chat_connections",
			Help: "Number of currently admitted chat connections",
		}),
		Handshakes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophchat_chat_handshakes_total",
				Help: "Total number of chat handshakes by result",
			},
			[]string{"result"},
		),
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophchat_chat_messages_total",
				Help: "Total number of relayed chat events by kind",
			},
			[]string{"kind"},
		),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gophchat_chat_dropped_total",
			Help: "Total number of events not delivered to a peer",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Connections, m.Handshakes, m.Messages, m.Dropped)
	}
	return m
}
