package hsmsclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hsms"

type metricSpec struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(c *Client) float64
}

// MetricsCollector exports the ConnectionMetrics of every client in a Registry as prometheus
// metrics, labeled with the remote address.
//
//	reg := hsmsclient.NewRegistry()
//	prometheus.MustRegister(hsmsclient.NewMetricsCollector(reg))
type MetricsCollector struct {
	registry *Registry
	specs    []metricSpec
}

var _ prometheus.Collector = (*MetricsCollector)(nil)

// NewMetricsCollector creates a collector over the clients of registry.
func NewMetricsCollector(registry *Registry) *MetricsCollector {
	counter := func(name, help string, value func(m *ConnectionMetrics) uint64) metricSpec {
		return metricSpec{
			desc:      prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, []string{"remote"}, nil),
			valueType: prometheus.CounterValue,
			value:     func(c *Client) float64 { return float64(value(c.Metrics())) },
		}
	}
	gauge := func(name, help string, value func(c *Client) float64) metricSpec {
		return metricSpec{
			desc:      prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, []string{"remote"}, nil),
			valueType: prometheus.GaugeValue,
			value:     value,
		}
	}

	return &MetricsCollector{
		registry: registry,
		specs: []metricSpec{
			counter("linktest_sent_total", "Linktest requests sent.",
				func(m *ConnectionMetrics) uint64 { return m.LinktestSendCount.Load() }),
			counter("linktest_received_total", "Linktest requests and replies received.",
				func(m *ConnectionMetrics) uint64 { return m.LinktestRecvCount.Load() }),
			counter("linktest_errors_total", "Linktest requests that failed or timed out.",
				func(m *ConnectionMetrics) uint64 { return m.LinktestErrCount.Load() }),
			counter("data_messages_sent_total", "Data messages sent.",
				func(m *ConnectionMetrics) uint64 { return m.DataMsgSendCount.Load() }),
			counter("data_messages_received_total", "Data messages received.",
				func(m *ConnectionMetrics) uint64 { return m.DataMsgRecvCount.Load() }),
			counter("data_message_errors_total", "Data messages that failed to send or get a reply.",
				func(m *ConnectionMetrics) uint64 { return m.DataMsgErrCount.Load() }),
			counter("events_published_total", "Unsolicited messages published to subscribers.",
				func(m *ConnectionMetrics) uint64 { return m.EventPublishedCount.Load() }),
			counter("connects_total", "Successful connects.",
				func(m *ConnectionMetrics) uint64 { return m.ConnectCount.Load() }),
			counter("connect_errors_total", "Failed connects.",
				func(m *ConnectionMetrics) uint64 { return m.ConnectErrCount.Load() }),
			counter("disconnects_total", "Connection teardowns.",
				func(m *ConnectionMetrics) uint64 { return m.DisconnectCount.Load() }),
			gauge("data_requests_inflight", "Data requests awaiting a reply.",
				func(c *Client) float64 { return float64(c.Metrics().DataMsgInflightCount.Load()) }),
			gauge("event_backlog", "Published messages not yet taken by subscribers.",
				func(c *Client) float64 { return float64(c.Metrics().EventBacklogGauge.Load()) }),
			gauge("pending_transactions", "Entries of the transaction table.",
				func(c *Client) float64 { return float64(c.PendingCount()) }),
			gauge("selected", "1 if the session is selected.",
				func(c *Client) float64 {
					if c.State().IsSelected() {
						return 1
					}
					return 0
				}),
		},
	}
}

// Describe implements prometheus.Collector.
func (mc *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, spec := range mc.specs {
		ch <- spec.desc
	}
}

// Collect implements prometheus.Collector.
func (mc *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	mc.registry.Range(func(address string, c *Client) bool {
		for _, spec := range mc.specs {
			ch <- prometheus.MustNewConstMetric(spec.desc, spec.valueType, spec.value(c), address)
		}

		return true
	})
}
