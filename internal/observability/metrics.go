package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

// Metrics is a small hand-rolled Prometheus-text registry. Adapter and
// pipeline code reaches it through Current(); when metrics are disabled
// Current() returns nil and every call site no-ops.
type Metrics struct {
	llmRequests *CounterVec
	llmLatency  *HistogramVec
	llmTokens   *CounterVec

	searchRequests *CounterVec

	apiRequests *CounterVec
	apiLatency  *HistogramVec

	phaseRuns    *CounterVec
	phaseLatency *HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		m := &Metrics{
			llmRequests:    NewCounterVec("lifeline_llm_requests_total", []string{"model", "endpoint", "status"}),
			llmLatency:     NewHistogramVec("lifeline_llm_request_seconds", []string{"endpoint"}, latencyBuckets),
			llmTokens:      NewCounterVec("lifeline_llm_tokens_total", []string{"model", "direction"}),
			searchRequests: NewCounterVec("lifeline_search_requests_total", []string{"kind", "status"}),
			apiRequests:    NewCounterVec("lifeline_api_requests_total", []string{"method", "route", "status"}),
			apiLatency:     NewHistogramVec("lifeline_api_request_seconds", []string{"route"}, latencyBuckets),
			phaseRuns:      NewCounterVec("lifeline_ingest_phase_total", []string{"phase", "status"}),
			phaseLatency:   NewHistogramVec("lifeline_ingest_phase_seconds", []string{"phase"}, phaseBuckets),
		}
		instance = m
		if log != nil {
			log.Info("metrics registry initialized")
		}
	})
	return instance
}

var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
var phaseBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(model, endpoint, status)
	m.llmLatency.Observe(dur.Seconds(), endpoint)
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) ObserveSearchRequest(kind, status string) {
	if m == nil {
		return
	}
	m.searchRequests.Inc(kind, status)
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), route)
}

func (m *Metrics) ObservePhase(phase, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.phaseRuns.Inc(phase, status)
	m.phaseLatency.Observe(dur.Seconds(), phase)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	for _, c := range []*CounterVec{m.llmRequests, m.llmTokens, m.searchRequests, m.apiRequests, m.phaseRuns} {
		if err := c.write(w); err != nil {
			return err
		}
	}
	for _, h := range []*HistogramVec{m.llmLatency, m.apiLatency, m.phaseLatency} {
		if err := h.write(w); err != nil {
			return err
		}
	}
	return nil
}

// StartServer exposes /metrics on its own listener so the scrape path does not
// share the API server's middleware chain.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil || strings.TrimSpace(addr) == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Warn("metrics server stopped", "error", err)
			}
		}
	}()
}

// -------------------- primitives --------------------

type CounterVec struct {
	name   string
	labels []string
	mu     sync.Mutex
	vals   map[string]float64
}

func NewCounterVec(name string, labels []string) *CounterVec {
	return &CounterVec{name: name, labels: labels, vals: map[string]float64{}}
}

func (c *CounterVec) Inc(labelVals ...string) { c.Add(1, labelVals...) }

func (c *CounterVec) Add(v float64, labelVals ...string) {
	if c == nil || v <= 0 {
		return
	}
	key := labelKey(c.labels, labelVals)
	c.mu.Lock()
	c.vals[key] += v
	c.mu.Unlock()
}

func (c *CounterVec) write(w io.Writer) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	keys := make([]string, 0, len(c.vals))
	for k := range c.vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys)+1)
	lines = append(lines, fmt.Sprintf("# TYPE %s counter", c.name))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s{%s} %g", c.name, k, c.vals[k]))
	}
	c.mu.Unlock()
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

type HistogramVec struct {
	name    string
	labels  []string
	buckets []float64
	mu      sync.Mutex
	counts  map[string][]uint64
	sums    map[string]float64
	totals  map[string]uint64
}

func NewHistogramVec(name string, labels []string, buckets []float64) *HistogramVec {
	return &HistogramVec{
		name:    name,
		labels:  labels,
		buckets: buckets,
		counts:  map[string][]uint64{},
		sums:    map[string]float64{},
		totals:  map[string]uint64{},
	}
}

func (h *HistogramVec) Observe(v float64, labelVals ...string) {
	if h == nil {
		return
	}
	key := labelKey(h.labels, labelVals)
	h.mu.Lock()
	buckets := h.counts[key]
	if buckets == nil {
		buckets = make([]uint64, len(h.buckets))
		h.counts[key] = buckets
	}
	for i, bound := range h.buckets {
		if v <= bound {
			buckets[i]++
		}
	}
	h.sums[key] += v
	h.totals[key]++
	h.mu.Unlock()
}

func (h *HistogramVec) write(w io.Writer) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	keys := make([]string, 0, len(h.counts))
	for k := range h.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := []string{fmt.Sprintf("# TYPE %s histogram", h.name)}
	for _, k := range keys {
		for i, bound := range h.buckets {
			lines = append(lines, fmt.Sprintf("%s_bucket{%s,le=%q} %d", h.name, k, fmt.Sprintf("%g", bound), h.counts[k][i]))
		}
		lines = append(lines, fmt.Sprintf("%s_bucket{%s,le=\"+Inf\"} %d", h.name, k, h.totals[k]))
		lines = append(lines, fmt.Sprintf("%s_sum{%s} %g", h.name, k, h.sums[k]))
		lines = append(lines, fmt.Sprintf("%s_count{%s} %d", h.name, k, h.totals[k]))
	}
	h.mu.Unlock()
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func labelKey(labels, vals []string) string {
	parts := make([]string, 0, len(labels))
	for i, l := range labels {
		v := ""
		if i < len(vals) {
			v = vals[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", l, v))
	}
	return strings.Join(parts, ",")
}
