// Package metrics counts ticks, player intents and save writes.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers runtime counters. The zero value is not usable; call New.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64

	// Intent metrics
	Clicks            int64
	Purchases         int64
	PurchasesRejected int64
	Prestiges         int64
	Imports           int64
	ImportsRejected   int64

	// Save metrics
	SavesWritten   int64
	SaveErrors     int64
	SaveLatencySum int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSThrottled         int64

	StartTime    time.Time
	lastTickTime time.Time
	mu           sync.RWMutex
}

// New creates a collector starting its uptime clock now.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	for {
		cur := atomic.LoadInt64(&c.TickLatencyMax)
		if int64(latency) <= cur || atomic.CompareAndSwapInt64(&c.TickLatencyMax, cur, int64(latency)) {
			break
		}
	}

	c.mu.Lock()
	c.lastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordSave records one write to the save store.
func (c *Collector) RecordSave(latency time.Duration, err error) {
	atomic.AddInt64(&c.SavesWritten, 1)
	atomic.AddInt64(&c.SaveLatencySum, int64(latency))
	if err != nil {
		atomic.AddInt64(&c.SaveErrors, 1)
	}
}

func (c *Collector) RecordClick() { atomic.AddInt64(&c.Clicks, 1) }

// RecordPurchase counts a purchase attempt; ok=false means it was rejected.
func (c *Collector) RecordPurchase(ok bool) {
	if ok {
		atomic.AddInt64(&c.Purchases, 1)
	} else {
		atomic.AddInt64(&c.PurchasesRejected, 1)
	}
}

func (c *Collector) RecordPrestige() { atomic.AddInt64(&c.Prestiges, 1) }

func (c *Collector) RecordImport(ok bool) {
	if ok {
		atomic.AddInt64(&c.Imports, 1)
	} else {
		atomic.AddInt64(&c.ImportsRejected, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

func (c *Collector) RecordWSThrottled() { atomic.AddInt64(&c.WSThrottled, 1) }

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	lastTick := c.lastTickTime
	c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	saves := atomic.LoadInt64(&c.SavesWritten)

	var tickAvg, saveAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if saves > 0 {
		saveAvg = float64(atomic.LoadInt64(&c.SaveLatencySum)) / float64(saves) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      lastTick.Format(time.RFC3339),
		},

		"intents": map[string]interface{}{
			"clicks":             atomic.LoadInt64(&c.Clicks),
			"purchases":          atomic.LoadInt64(&c.Purchases),
			"purchases_rejected": atomic.LoadInt64(&c.PurchasesRejected),
			"prestiges":          atomic.LoadInt64(&c.Prestiges),
			"imports":            atomic.LoadInt64(&c.Imports),
			"imports_rejected":   atomic.LoadInt64(&c.ImportsRejected),
		},

		"saves": map[string]interface{}{
			"written":    saves,
			"errors":     atomic.LoadInt64(&c.SaveErrors),
			"avg_lat_ms": saveAvg,
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"throttled":          atomic.LoadInt64(&c.WSThrottled),
		},
	}
}

// Handler serves the snapshot as JSON.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler serves the counters in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE %s counter\n", name)
			fmt.Fprintf(w, "%s %d\n\n", name, v)
		}

		counter("tycoon_tick_count", "Total tick cycles", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP tycoon_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE tycoon_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "tycoon_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		counter("tycoon_clicks_total", "Manual clicks", atomic.LoadInt64(&c.Clicks))

		fmt.Fprintf(w, "# HELP tycoon_purchases_total Upgrade purchase attempts\n")
		fmt.Fprintf(w, "# TYPE tycoon_purchases_total counter\n")
		fmt.Fprintf(w, "tycoon_purchases_total{result=\"ok\"} %d\n", atomic.LoadInt64(&c.Purchases))
		fmt.Fprintf(w, "tycoon_purchases_total{result=\"rejected\"} %d\n\n", atomic.LoadInt64(&c.PurchasesRejected))

		counter("tycoon_prestiges_total", "Prestige resets", atomic.LoadInt64(&c.Prestiges))
		counter("tycoon_saves_total", "Save blobs written", atomic.LoadInt64(&c.SavesWritten))
		counter("tycoon_save_errors_total", "Failed save writes", atomic.LoadInt64(&c.SaveErrors))

		fmt.Fprintf(w, "# HELP tycoon_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE tycoon_ws_connections gauge\n")
		fmt.Fprintf(w, "tycoon_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP tycoon_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE tycoon_ws_messages_total counter\n")
		fmt.Fprintf(w, "tycoon_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "tycoon_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
