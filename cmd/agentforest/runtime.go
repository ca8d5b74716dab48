package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/agentforest"
	"github.com/hupe1980/agentforest/config"
	"github.com/hupe1980/agentforest/forest"
	"github.com/hupe1980/agentforest/logging"
	"github.com/hupe1980/agentforest/metrics"
	"github.com/hupe1980/agentforest/model"
	"github.com/hupe1980/agentforest/natsbus"
)

// runtime bundles the services a command needs and tears them down on Close.
type runtime struct {
	cfg    *config.Config
	logger logging.Logger
	af     *agentforest.AgentForest
	llm    model.Model

	registry    *prometheus.Registry
	metrics     *http.Server
	metricsAddr string
	bus         *natsbus.Server
	publisher   *natsbus.Publisher
}

// newRuntime wires logging, metrics, the NATS mirror and the model adapter
// described by cfg. llm may be nil, in which case one is built from
// cfg.Provider.
func newRuntime(cfg *config.Config, llm model.Model) (*runtime, error) {
	lc := cfg.LoggerConfig()
	lc.Output = os.Stderr
	logger := logging.New(lc)

	rt := &runtime{cfg: cfg, logger: logger}

	recorder := metrics.Nop()
	if cfg.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		rt.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusRecorderWith(rt.registry)

		if err := rt.serveMetrics(cfg.Metrics.Addr); err != nil {
			return nil, err
		}
	}

	var publisher forest.Publisher
	if cfg.NATS.Embedded || cfg.NATS.URL != "" {
		if err := rt.connectBus(); err != nil {
			rt.Close()
			return nil, err
		}
		publisher = rt.publisher
	}

	if llm == nil {
		var err error
		llm, err = newModel(cfg.Provider)
		if err != nil {
			rt.Close()
			return nil, err
		}
	}
	rt.llm = llm

	rt.af = agentforest.New(func(o *agentforest.Options) {
		o.MaxIterations = cfg.Agent.MaxIterations
		o.MaxParallelTools = cfg.Agent.MaxParallelTools
		o.Logger = logger
		o.Recorder = recorder
		o.Publisher = publisher
	})

	return rt, nil
}

func (rt *runtime) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))

	rt.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := rt.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("metrics.server.failed", "error", err)
		}
	}()

	rt.metricsAddr = ln.Addr().String()
	rt.logger.Info("metrics.server.started", "addr", rt.metricsAddr)

	return nil
}

func (rt *runtime) connectBus() error {
	url := rt.cfg.NATS.URL

	if rt.cfg.NATS.Embedded {
		srv, err := natsbus.StartServer(natsbus.ServerConfig{Host: "127.0.0.1", Port: rt.cfg.NATS.Port})
		if err != nil {
			return err
		}
		rt.bus = srv
		url = srv.ClientURL()
		rt.logger.Info("nats.server.started", "url", url)
	}

	pub, err := natsbus.Connect(url)
	if err != nil {
		return err
	}
	rt.publisher = pub

	return nil
}

// Close flushes and stops every service the runtime started.
func (rt *runtime) Close() {
	if rt.publisher != nil {
		if err := rt.publisher.Close(); err != nil {
			rt.logger.Warn("nats.publisher.close_failed", "error", err)
		}
	}

	if rt.bus != nil {
		rt.bus.Close()
	}

	if rt.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.metrics.Shutdown(ctx)
	}
}

// commandContext returns a context cancelled on interrupt, bounded by timeout
// when it is positive.
func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
