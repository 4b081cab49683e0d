package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/servicekit/internal/config"
	"github.com/samvad-hq/servicekit/internal/logger"
	"github.com/samvad-hq/servicekit/pkg/endpoint"
	"github.com/samvad-hq/servicekit/pkg/service"
)

// FetchOnce resolves id in the endpoints catalog and fetches it a single time.
func FetchOnce(ctx context.Context, cfg *config.Config, log logger.Logger, id string) (json.RawMessage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	catalog, err := endpoint.LoadCatalog(cfg.EndpointsFile)
	if err != nil {
		return nil, fmt.Errorf("load endpoints catalog: %w", err)
	}
	ep, err := catalog.Endpoint(id)
	if err != nil {
		return nil, err
	}

	factory, err := newFactory(cfg, log, nil)
	if err != nil {
		return nil, err
	}

	payload, err := service.Fetch[json.RawMessage](ctx, factory, ep)
	if err != nil {
		return nil, fmt.Errorf("fetch endpoint %s: %w", id, err)
	}
	log.DebugObj("endpoint fetched", "fetch_result", map[string]any{
		"endpoint_id": id,
		"bytes":       len(payload),
	})
	return payload, nil
}
