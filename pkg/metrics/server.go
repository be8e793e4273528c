package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/dino.go/pkg/framework"
)

// Endpoint serves /metrics. It implements framework.Runnable.
type Endpoint struct {
	Addr     string
	Gatherer prometheus.Gatherer
}

// Name implements framework.Named.
func (e *Endpoint) Name() string {
	return "metrics"
}

// Handler returns the HTTP handler.
func (e *Endpoint) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.Gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Run serves until ctx is done.
func (e *Endpoint) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: e.Handler(), ReadHeaderTimeout: 5 * time.Second}
	glog.Infof("metrics: serving on %s", ln.Addr())
	err = framework.RunWithContextCloser(ctx, srv, func() error {
		return srv.Serve(ln)
	})
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
