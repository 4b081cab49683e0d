package httpclient

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics holds the collectors recorded by InstrumentedSession.
type SessionMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSessionMetrics creates the session collectors and registers them with reg
// when reg is non-nil.
func NewSessionMetrics(reg prometheus.Registerer) (*SessionMetrics, error) {
	m := &SessionMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "servicekit",
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "HTTP exchanges performed by the session, by method and outcome.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "servicekit",
			Subsystem: "session",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP exchanges performed by the session.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// InstrumentedSession records request counts and latency around another Session.
type InstrumentedSession struct {
	next    Session
	metrics *SessionMetrics
}

// NewInstrumentedSession wraps next. A nil metrics value disables recording.
func NewInstrumentedSession(next Session, metrics *SessionMetrics) *InstrumentedSession {
	return &InstrumentedSession{next: next, metrics: metrics}
}

// Do forwards to the wrapped session; results and errors pass through untouched.
func (s *InstrumentedSession) Do(ctx context.Context, req *Request) ([]byte, Response, error) {
	start := time.Now()
	body, resp, err := s.next.Do(ctx, req)
	if s.metrics == nil {
		return body, resp, err
	}

	method := ""
	if req != nil {
		method = req.Method.String()
	}
	code := "error"
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode())
	}
	s.metrics.requests.WithLabelValues(method, code).Inc()
	s.metrics.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	return body, resp, err
}
