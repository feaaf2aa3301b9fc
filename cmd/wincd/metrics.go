package main

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"winclink-go/bus"
	"winclink-go/services/wifi"
	"winclink-go/types"
)

// metrics mirrors the retained wifi/stats and wifi/state messages into
// Prometheus collectors.
type metrics struct {
	mu    sync.Mutex
	stats types.WiFiStats
	state types.WiFiState
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{}
	counter := func(name, help string, get func(s types.WiFiStats) uint32) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "winc",
			Name:      name,
			Help:      help,
		}, func() float64 {
			m.mu.Lock()
			defer m.mu.Unlock()
			return float64(get(m.stats))
		})
	}
	gauge := func(name, help string, get func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "winc",
			Name:      name,
			Help:      help,
		}, func() float64 {
			m.mu.Lock()
			defer m.mu.Unlock()
			return get()
		})
	}
	cs := []prometheus.Collector{
		counter("edges_total", "Signal line edges seen by the dispatcher.", func(s types.WiFiStats) uint32 { return s.Edges }),
		counter("pumps_total", "Event pumps run against the driver.", func(s types.WiFiStats) uint32 { return s.Pumps }),
		counter("skips_total", "Edges skipped because the foreground held the driver.", func(s types.WiFiStats) uint32 { return s.Skips }),
		counter("line_skips_total", "Edges skipped because the signal line was held.", func(s types.WiFiStats) uint32 { return s.LineSkips }),
		counter("replays_total", "Deferred edges serviced on release.", func(s types.WiFiStats) uint32 { return s.Replays }),
		counter("faults_total", "Chip fault events.", func(s types.WiFiStats) uint32 { return s.Faults }),
		counter("ignored_events_total", "Events invalid for the state they arrived in.", func(s types.WiFiStats) uint32 { return s.Ignored }),
		counter("busy_total", "Foreground operations that gave up on the driver.", func(s types.WiFiStats) uint32 { return s.Busy }),
		counter("slot_overwrites_total", "Shared slot overwrites.", func(s types.WiFiStats) uint32 { return s.Overwrites }),
		gauge("access_points", "Access points found by the current scan.", func() float64 { return float64(m.stats.APCount) }),
		gauge("connected", "1 while associated.", func() float64 {
			if m.state.Status == "connected" {
				return 1
			}
			return 0
		}),
		gauge("rssi_dbm", "Signal strength of the joined network.", func() float64 { return float64(m.state.RSSI) }),
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// run follows the retained topics until ctx is done.
func (m *metrics) run(ctx context.Context, conn *bus.Connection) {
	stats := conn.Subscribe(wifi.TopicStats)
	defer conn.Unsubscribe(stats)
	state := conn.Subscribe(wifi.TopicState)
	defer conn.Unsubscribe(state)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-stats.Channel():
			if s, ok := msg.Payload.(types.WiFiStats); ok {
				m.mu.Lock()
				m.stats = s
				m.mu.Unlock()
			}
		case msg := <-state.Channel():
			if s, ok := msg.Payload.(types.WiFiState); ok {
				m.mu.Lock()
				m.state = s
				m.mu.Unlock()
			}
		}
	}
}
