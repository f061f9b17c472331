package hsmsclient

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic metrics of a client.
// MetricsCollector exports them for the clients of a Registry.
type ConnectionMetrics struct {
	// LinktestSendCount indicates the number of linktest requests sent.
	LinktestSendCount atomic.Uint64
	// LinktestRecvCount indicates the number of linktest requests and replies received.
	LinktestRecvCount atomic.Uint64
	// LinktestErrCount indicates the number of linktest requests that failed or timed out.
	LinktestErrCount atomic.Uint64

	// DataMsgSendCount indicates the number of data messages sent.
	DataMsgSendCount atomic.Uint64
	// DataMsgRecvCount indicates the number of data messages received.
	DataMsgRecvCount atomic.Uint64
	// DataMsgErrCount indicates the number of data messages that failed to send or get a reply.
	DataMsgErrCount atomic.Uint64
	// DataMsgInflightCount indicates the number of data requests awaiting a reply.
	DataMsgInflightCount atomic.Int64

	// EventPublishedCount indicates the number of unsolicited messages published to subscribers.
	EventPublishedCount atomic.Uint64
	// EventBacklogGauge indicates the number of published messages not yet taken by subscribers.
	EventBacklogGauge atomic.Int64

	// ConnectCount indicates the number of successful connects.
	ConnectCount atomic.Uint64
	// ConnectErrCount indicates the number of failed connects.
	ConnectErrCount atomic.Uint64
	// DisconnectCount indicates the number of teardowns, requested or not.
	DisconnectCount atomic.Uint64
}

func (m *ConnectionMetrics) incLinktestSendCount() { m.LinktestSendCount.Add(1) }

func (m *ConnectionMetrics) incLinktestRecvCount() { m.LinktestRecvCount.Add(1) }

func (m *ConnectionMetrics) incLinktestErrCount() { m.LinktestErrCount.Add(1) }

func (m *ConnectionMetrics) incDataMsgSendCount() { m.DataMsgSendCount.Add(1) }

func (m *ConnectionMetrics) incDataMsgRecvCount() { m.DataMsgRecvCount.Add(1) }

func (m *ConnectionMetrics) incDataMsgErrCount() { m.DataMsgErrCount.Add(1) }

func (m *ConnectionMetrics) incDataMsgInflightCount() { m.DataMsgInflightCount.Add(1) }

func (m *ConnectionMetrics) decDataMsgInflightCount() { m.DataMsgInflightCount.Add(-1) }

func (m *ConnectionMetrics) incEventPublishedCount() { m.EventPublishedCount.Add(1) }

func (m *ConnectionMetrics) addEventBacklog(delta int64) { m.EventBacklogGauge.Add(delta) }

func (m *ConnectionMetrics) incConnectCount() { m.ConnectCount.Add(1) }

func (m *ConnectionMetrics) incConnectErrCount() { m.ConnectErrCount.Add(1) }

func (m *ConnectionMetrics) incDisconnectCount() { m.DisconnectCount.Add(1) }
