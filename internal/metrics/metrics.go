package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	StreamsStarted   prometheus.Counter
	StreamsFinished  prometheus.Counter
	StreamsFailed    prometheus.Counter
	StreamsCancelled prometheus.Counter
	TokensStreamed   prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			StreamsStarted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "loomchat",
				Name:      "streams_started_total",
				Help:      "Total generation streams opened",
			}),
			StreamsFinished: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "loomchat",
				Name:      "streams_finished_total",
				Help:      "Total generation streams that finished and were persisted",
			}),
			StreamsFailed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "loomchat",
				Name:      "streams_failed_total",
				Help:      "Total generation streams aborted by transport failure",
			}),
			StreamsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "loomchat",
				Name:      "streams_cancelled_total",
				Help:      "Total generation streams cancelled by the user",
			}),
			TokensStreamed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "loomchat",
				Name:      "tokens_streamed_total",
				Help:      "Total tokens forwarded to clients",
			}),
		}
		prometheus.MustRegister(
			global.StreamsStarted,
			global.StreamsFinished,
			global.StreamsFailed,
			global.StreamsCancelled,
			global.TokensStreamed,
		)
	})
	return global
}
