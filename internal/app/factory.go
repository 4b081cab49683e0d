package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samvad-hq/servicekit/internal/config"
	"github.com/samvad-hq/servicekit/internal/logger"
	"github.com/samvad-hq/servicekit/pkg/httpclient"
	"github.com/samvad-hq/servicekit/pkg/service"
)

// newFactory builds the service factory used by the runtimes: a resty session
// bounded by the configured timeout, instrumented when reg is non-nil.
func newFactory(cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (*service.Factory, error) {
	var session httpclient.Session = httpclient.NewRestySession(cfg.HTTPTimeout)
	if reg != nil {
		metrics, err := httpclient.NewSessionMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("register session metrics: %w", err)
		}
		session = httpclient.NewInstrumentedSession(session, metrics)
	}

	opts := []service.Option{service.WithLogger(log)}
	if cfg.StatusCheck {
		opts = append(opts, service.WithStatusCheck())
	}
	return service.NewFactory(session, opts...), nil
}
