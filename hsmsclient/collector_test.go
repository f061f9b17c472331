package hsmsclient

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-hsms/hsms"
	"github.com/arloliu/go-hsms/secs2"
)

func TestMetricsCollector(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	registry := NewRegistry()
	collector := NewMetricsCollector(registry)

	promReg := prometheus.NewPedanticRegistry()
	require.NoError(promReg.Register(collector))

	// nothing connected, nothing exported
	require.Zero(testutil.CollectAndCount(collector))

	eq := newFakeEquipment(t, echoReply)
	client := newTestClient(ctx, t, eq.port, WithRegistry(registry))
	connectSelected(ctx, t, client)

	msg, err := hsms.NewDataRequest(testSessionID, 1, 3, 0, secs2.U4(1))
	require.NoError(err)
	_, err = client.SendRequest(ctx, msg)
	require.NoError(err)

	require.Equal(len(collector.specs), testutil.CollectAndCount(collector))

	families, err := promReg.Gather()
	require.NoError(err)

	values := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			require.Equal("remote", metric.GetLabel()[0].GetName())
			require.Equal(client.Config().Address(), metric.GetLabel()[0].GetValue())

			switch {
			case metric.GetCounter() != nil:
				values[family.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[family.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	require.InDelta(1.0, values["hsms_data_messages_sent_total"], 0)
	require.InDelta(1.0, values["hsms_data_messages_received_total"], 0)
	require.InDelta(1.0, values["hsms_connects_total"], 0)
	require.InDelta(1.0, values["hsms_selected"], 0)
	require.InDelta(0.0, values["hsms_pending_transactions"], 0)
	require.InDelta(0.0, values["hsms_data_requests_inflight"], 0)

	require.NoError(client.Disconnect(ctx))
	require.Zero(testutil.CollectAndCount(collector))
}
