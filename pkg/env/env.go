package env

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/bridge/mqtt"
	fx "github.com/robotalks/dino.go/pkg/framework"
	"github.com/robotalks/dino.go/pkg/metrics"
)

// Env is a board with its layout attached and the optional MQTT bridge
// and metrics endpoint.
type Env struct {
	Config     *Config
	ID         string
	Board      *board.Board
	Components []board.Component

	Bridge   *mqtt.Bridge
	Queue    *mqtt.Queue
	Metrics  *metrics.Collector
	Gatherer *prometheus.Registry

	observers []*board.Subscription
}

// NewEnv creates Env from config.
func (c *Config) NewEnv(ctx context.Context) (*Env, error) {
	bindings, err := c.LoadLayout()
	if err != nil {
		return nil, err
	}
	e := &Env{Config: c, ID: c.ID()}
	if e.Board, err = c.NewBoard(board.WithDiagnostics(board.HandleDiagnosticFunc(e.handleDiagnostic))); err != nil {
		return nil, err
	}
	if c.MetricsAddr != "" {
		e.Metrics = metrics.NewCollector(e.ID, e.Board)
		e.Gatherer = prometheus.NewRegistry()
		e.Gatherer.MustRegister(e.Metrics)
		e.observers = append(e.observers, e.Board.Observe(e.Metrics))
	}
	if c.MQTTBrokerURL != "" {
		if e.Bridge, e.Queue, err = mqtt.Dial(c.MQTTBrokerURL, e.Board, e.ID); err != nil {
			e.Close()
			return nil, err
		}
	}
	if e.Components, err = Attach(ctx, e.Board, bindings); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv(ctx context.Context) *Env {
	e, err := c.NewEnv(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// Runnables returns the board and the enabled services.
func (e *Env) Runnables() []fx.Runnable {
	runners := []fx.Runnable{fx.NamedRun("board", e.Board)}
	if e.Bridge != nil {
		runners = append(runners, fx.NamedRun("bridge", e.Bridge))
	}
	if e.Gatherer != nil {
		runners = append(runners, &metrics.Endpoint{Addr: e.Config.MetricsAddr, Gatherer: e.Gatherer})
	}
	return runners
}

// Close releases the board and the broker connection.
func (e *Env) Close() error {
	for _, sub := range e.observers {
		sub.Close()
	}
	if e.Queue != nil {
		e.Queue.Close()
	}
	return e.Board.Close()
}

func (e *Env) handleDiagnostic(ctx context.Context, d board.Diagnostic) {
	board.LogDiagnostics.HandleDiagnostic(ctx, d)
	if e.Metrics != nil {
		e.Metrics.HandleDiagnostic(ctx, d)
	}
	if e.Bridge != nil {
		e.Bridge.HandleDiagnostic(ctx, d)
	}
}
