package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/go-hsms/hsmsclient"
	"github.com/arloliu/go-hsms/logger"
)

// metricsServer serves the metrics of the clients in a registry on /metrics.
type metricsServer struct {
	ln  net.Listener
	srv *http.Server
}

func startMetricsServer(addr string, registry *hsmsclient.Registry) (*metricsServer, error) {
	promReg := prometheus.NewRegistry()
	if err := promReg.Register(hsmsclient.NewMetricsCollector(registry)); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	s := &metricsServer{
		ln:  ln,
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return s, nil
}

func (s *metricsServer) Addr() string { return s.ln.Addr().String() }

func (s *metricsServer) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
