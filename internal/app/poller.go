package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samvad-hq/servicekit/internal/config"
	"github.com/samvad-hq/servicekit/internal/logger"
	"github.com/samvad-hq/servicekit/internal/poller"
	"github.com/samvad-hq/servicekit/internal/storage"
	"github.com/samvad-hq/servicekit/pkg/endpoint"
	"github.com/samvad-hq/servicekit/pkg/publishers"
)

const metricsShutdownTimeout = 5 * time.Second

// Poller is the long running runtime: it polls every catalog endpoint on an
// interval and publishes changed payloads. It owns the store, the publisher
// clients and the optional metrics listener.
type Poller struct {
	cfg         *config.Config
	catalog     *endpoint.Catalog
	fanout      *publishers.Fanout
	pollService *poller.Service
	interval    time.Duration
	log         logger.Logger
	store       storage.Store
	registry    *prometheus.Registry
}

// NewPoller builds a poller runtime from config files.
func NewPoller(ctx context.Context, cfg *config.Config, log logger.Logger) (*Poller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, err := endpoint.LoadCatalog(cfg.EndpointsFile)
	if err != nil {
		return nil, fmt.Errorf("load endpoints catalog: %w", err)
	}
	log.InfoObj("endpoints catalog loaded", "endpoints_meta", map[string]any{
		"count": len(catalog.IDs()),
		"ids":   catalog.IDs(),
	})

	pubConfigs, err := publishers.LoadConfigs(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	enabled := pubConfigs.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		TTL:             cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory, err := newFactory(cfg, log, registry)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, err
	}

	return &Poller{
		cfg:         cfg,
		catalog:     catalog,
		fanout:      fanout,
		pollService: poller.NewService(factory, fanout, log, store),
		interval:    cfg.PollInterval,
		log:         log,
		store:       store,
		registry:    registry,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if p == nil || p.pollService == nil {
		return fmt.Errorf("poller is not initialized")
	}
	defer p.close()

	if p.cfg.MetricsAddr != "" {
		stop := p.serveMetrics(p.cfg.MetricsAddr)
		defer stop()
	}

	defs := p.catalog.All()
	if len(defs) == 0 {
		p.log.WarnObj("no endpoints configured; poller idle", "endpoints_file", p.cfg.EndpointsFile)
		<-ctx.Done()
		return nil
	}

	p.log.InfoObj("poll loop starting", "poller_state", map[string]any{
		"endpoints_count":  len(defs),
		"publishers_count": p.fanout.Size(),
		"poll_interval":    p.interval.String(),
	})

	if err := p.runOnce(ctx, defs); err != nil {
		p.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("poll loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := p.runOnce(ctx, defs); err != nil {
				p.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

func (p *Poller) runOnce(ctx context.Context, defs []endpoint.Definition) error {
	start := time.Now()
	res, err := p.pollService.Run(ctx, defs)
	p.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"endpoints_count": len(defs),
		"fetched":         res.Fetched,
		"unchanged":       res.Unchanged,
		"published":       res.Published,
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return err
}

func (p *Poller) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry}))
	return mux
}

// serveMetrics starts the metrics listener and returns a func that shuts it down.
func (p *Poller) serveMetrics(addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.metricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.ErrorObj("metrics listener failed", "error", err)
		}
	}()
	p.log.InfoObj("metrics listener started", "metrics_addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			p.log.WarnObj("metrics listener shutdown failed", "error", err)
		}
	}
}

// close releases the publisher clients and the store, logging any errors.
func (p *Poller) close() {
	if err := p.fanout.Close(); err != nil {
		p.log.ErrorObj("publishers close failed", "error", err)
	}
	if p.store == nil {
		return
	}
	if err := p.store.Close(); err != nil {
		p.log.ErrorObj("storage close failed", "error", err)
	}
}
