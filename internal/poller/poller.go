package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samvad-hq/servicekit/internal/logger"
	"github.com/samvad-hq/servicekit/internal/storage"
	"github.com/samvad-hq/servicekit/pkg/endpoint"
	"github.com/samvad-hq/servicekit/pkg/publishers"
	"github.com/samvad-hq/servicekit/pkg/service"
)

// Result summarises one poll pass.
type Result struct {
	Fetched   int
	Unchanged int
	Published int
}

// Service fetches catalog endpoints and publishes payloads that changed since
// the last pass.
type Service struct {
	fetcher   service.Fetcher
	publisher EventPublisher
	dedupe    Deduper
	log       logger.Logger
}

// NewService wires a poller. A nil dedupe publishes every payload.
func NewService(fetcher service.Fetcher, pub EventPublisher, log logger.Logger, dedupe Deduper) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		fetcher:   fetcher,
		publisher: pub,
		dedupe:    dedupe,
		log:       log,
	}
}

// Run executes a poll pass over defs. Per-endpoint failures do not stop the
// pass; they are joined into the returned error.
func (s *Service) Run(ctx context.Context, defs []endpoint.Definition) (Result, error) {
	if s == nil || s.fetcher == nil || s.publisher == nil {
		return Result{}, fmt.Errorf("poller service is not initialized")
	}
	if len(defs) == 0 {
		return Result{}, fmt.Errorf("no endpoints configured for polling")
	}

	var (
		res  Result
		errs []error
	)
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		outcome, err := s.runEndpoint(ctx, def)
		switch outcome {
		case outcomePublished:
			res.Fetched++
			res.Published++
		case outcomeUnchanged:
			res.Fetched++
			res.Unchanged++
		}
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("endpoint poll failed", "endpoint_error", map[string]any{
				"endpoint_id": def.ID,
				"error":       err.Error(),
			})
		}
	}

	return res, errors.Join(errs...)
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeUnchanged
	outcomePublished
)

func (s *Service) runEndpoint(ctx context.Context, def endpoint.Definition) (outcome, error) {
	ep, err := def.Endpoint()
	if err != nil {
		return outcomeFailed, fmt.Errorf("endpoint %s: %w", def.ID, err)
	}
	req, err := service.NewRequest(ep)
	if err != nil {
		return outcomeFailed, fmt.Errorf("endpoint %s: %w", def.ID, err)
	}

	payload, err := service.Fetch[json.RawMessage](ctx, s.fetcher, ep)
	if err != nil {
		return outcomeFailed, fmt.Errorf("fetch endpoint %s: %w", def.ID, err)
	}

	key := storage.PayloadKey(def.ID, payload)
	if s.dedupe != nil {
		seen, err := s.dedupe.Seen(key)
		if err != nil {
			return outcomeFailed, fmt.Errorf("dedupe lookup for %s: %w", def.ID, err)
		}
		if seen {
			s.log.DebugObj("payload unchanged", "endpoint_result", map[string]any{
				"endpoint_id": def.ID,
			})
			return outcomeUnchanged, nil
		}
	}

	evt := publishers.NewEvent(def.ID, ep.Method().String(), req.URL.String(), payload)
	delivered, pubErr := s.publisher.Publish(ctx, evt)
	if delivered == 0 && pubErr != nil {
		return outcomeFailed, fmt.Errorf("publish endpoint %s: %w", def.ID, pubErr)
	}

	// Marked once any sink accepted the payload.
	if s.dedupe != nil {
		if err := s.dedupe.Mark(key); err != nil {
			return outcomePublished, errors.Join(pubErr, fmt.Errorf("dedupe mark for %s: %w", def.ID, err))
		}
	}

	s.log.InfoObj("endpoint polled", "endpoint_result", map[string]any{
		"endpoint_id": def.ID,
		"event_id":    evt.ID,
		"delivered":   delivered,
		"bytes":       len(payload),
	})
	if pubErr != nil {
		return outcomePublished, fmt.Errorf("publish endpoint %s: %w", def.ID, pubErr)
	}
	return outcomePublished, nil
}
