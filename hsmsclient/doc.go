/*
Package hsmsclient implements an HSMS-SS (SEMI E37.1) active client.

A Client dials the equipment, selects the session, keeps the link alive with periodic
Linktest.req messages, and correlates data requests with their replies by system bytes. Inbound
data messages that don't answer a pending request are delivered to subscribers.

	cfg, err := hsmsclient.NewConnectionConfig("127.0.0.1", 5000,
		hsmsclient.WithSessionID(1),
		hsmsclient.WithT3Timeout(45*time.Second),
	)
	if err != nil {
		// handle error
	}

	client, _ := hsmsclient.NewClient(ctx, cfg)
	if err := client.Connect(ctx); err != nil {
		// handle error
	}
	defer client.Disconnect(ctx)

	events := client.Subscribe(ctx)
	go func() {
		for msg := range events {
			fmt.Println(msg.ToSML())
		}
	}()

	req, _ := hsms.NewDataRequest(1, 1, 3, 0, secs2.L(secs2.U4(1)))
	reply, err := client.SendRequest(ctx, req)

# Connection states

	disconnected --dial--> connecting --established--> connected --select--> selected
	     ^                     |                           |  ^                  |
	     +--------close--------+-----------close-----------+  +----deselect------+

Any read error, undecodable frame or Separate.req from the equipment closes the connection: the
linktest stops, every pending request fails with hsms.ErrConnClosed and the client moves to
StateDisconnected. Reconnecting is left to the caller.

# Metrics

Every client counts its traffic in ConnectionMetrics. Clients built WithRegistry can be exported
to prometheus with NewMetricsCollector.

# Errors

Errors returned by the client wrap the sentinels of package hsms, use errors.Is to branch on
hsms.ErrNotConnected, hsms.ErrConnection, hsms.ErrTimeout, hsms.ErrConnClosed, hsms.ErrRejected
and hsms.ErrDuplicateSystemBytes.
*/
package hsmsclient
