// Package metrics collects request, storage and change-feed counters and
// exposes them as JSON or Prometheus text.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

type Collector struct {
	requests      atomic.Int64
	requestErrors atomic.Int64
	latencySum    atomic.Int64
	latencyMax    atomic.Int64

	saveWrites      atomic.Int64
	saveWriteErrors atomic.Int64
	saveReads       atomic.Int64
	saveReadErrors  atomic.Int64

	feedConnections atomic.Int64
	feedMessagesOut atomic.Int64
	feedDropped     atomic.Int64

	startTime time.Time
}

func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// RecordRequest records one served HTTP request. Status codes of 500 and
// above count as errors.
func (c *Collector) RecordRequest(latency time.Duration, status int) {
	if c == nil {
		return
	}
	c.requests.Add(1)
	c.latencySum.Add(int64(latency))
	for {
		cur := c.latencyMax.Load()
		if int64(latency) <= cur || c.latencyMax.CompareAndSwap(cur, int64(latency)) {
			break
		}
	}
	if status >= http.StatusInternalServerError {
		c.requestErrors.Add(1)
	}
}

func (c *Collector) RecordSaveWrite(err error) {
	if c == nil {
		return
	}
	c.saveWrites.Add(1)
	if err != nil {
		c.saveWriteErrors.Add(1)
	}
}

func (c *Collector) RecordSaveRead(err error) {
	if c == nil {
		return
	}
	c.saveReads.Add(1)
	if err != nil {
		c.saveReadErrors.Add(1)
	}
}

func (c *Collector) RecordFeedConnection(delta int64) {
	if c == nil {
		return
	}
	c.feedConnections.Add(delta)
}

func (c *Collector) RecordFeedMessage(delivered bool) {
	if c == nil {
		return
	}
	if delivered {
		c.feedMessagesOut.Add(1)
	} else {
		c.feedDropped.Add(1)
	}
}

// Snapshot returns current metrics as a nested map.
func (c *Collector) Snapshot() map[string]any {
	requests := c.requests.Load()
	var avg float64
	if requests > 0 {
		avg = float64(c.latencySum.Load()) / float64(requests) / 1e6
	}
	return map[string]any{
		"uptime_seconds": time.Since(c.startTime).Seconds(),
		"http": map[string]any{
			"requests":       requests,
			"errors":         c.requestErrors.Load(),
			"avg_latency_ms": avg,
			"max_latency_ms": float64(c.latencyMax.Load()) / 1e6,
		},
		"saves": map[string]any{
			"writes":       c.saveWrites.Load(),
			"write_errors": c.saveWriteErrors.Load(),
			"reads":        c.saveReads.Load(),
			"read_errors":  c.saveReadErrors.Load(),
		},
		"events": map[string]any{
			"active_connections": c.feedConnections.Load(),
			"messages_out":       c.feedMessagesOut.Load(),
			"dropped":            c.feedDropped.Load(),
		},
	}
}

// Handler serves the JSON snapshot.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler serves the counters in the Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		fmt.Fprintf(w, "# HELP pokestate_http_requests_total Total HTTP requests\n")
		fmt.Fprintf(w, "# TYPE pokestate_http_requests_total counter\n")
		fmt.Fprintf(w, "pokestate_http_requests_total %d\n\n", c.requests.Load())

		fmt.Fprintf(w, "# HELP pokestate_http_errors_total HTTP responses with status >= 500\n")
		fmt.Fprintf(w, "# TYPE pokestate_http_errors_total counter\n")
		fmt.Fprintf(w, "pokestate_http_errors_total %d\n\n", c.requestErrors.Load())

		fmt.Fprintf(w, "# HELP pokestate_http_latency_max_ms Maximum request latency\n")
		fmt.Fprintf(w, "# TYPE pokestate_http_latency_max_ms gauge\n")
		fmt.Fprintf(w, "pokestate_http_latency_max_ms %.2f\n\n", float64(c.latencyMax.Load())/1e6)

		fmt.Fprintf(w, "# HELP pokestate_save_ops_total Save store operations\n")
		fmt.Fprintf(w, "# TYPE pokestate_save_ops_total counter\n")
		fmt.Fprintf(w, "pokestate_save_ops_total{op=\"write\"} %d\n", c.saveWrites.Load())
		fmt.Fprintf(w, "pokestate_save_ops_total{op=\"read\"} %d\n\n", c.saveReads.Load())

		fmt.Fprintf(w, "# HELP pokestate_save_errors_total Failed save store operations\n")
		fmt.Fprintf(w, "# TYPE pokestate_save_errors_total counter\n")
		fmt.Fprintf(w, "pokestate_save_errors_total{op=\"write\"} %d\n", c.saveWriteErrors.Load())
		fmt.Fprintf(w, "pokestate_save_errors_total{op=\"read\"} %d\n\n", c.saveReadErrors.Load())

		fmt.Fprintf(w, "# HELP pokestate_feed_connections Active change feed connections\n")
		fmt.Fprintf(w, "# TYPE pokestate_feed_connections gauge\n")
		fmt.Fprintf(w, "pokestate_feed_connections %d\n\n", c.feedConnections.Load())

		fmt.Fprintf(w, "# HELP pokestate_feed_messages_total Change feed messages\n")
		fmt.Fprintf(w, "# TYPE pokestate_feed_messages_total counter\n")
		fmt.Fprintf(w, "pokestate_feed_messages_total{outcome=\"sent\"} %d\n", c.feedMessagesOut.Load())
		fmt.Fprintf(w, "pokestate_feed_messages_total{outcome=\"dropped\"} %d\n", c.feedDropped.Load())
	}
}
