// Package heartbeat prints a periodic one-line wifi summary so a serial
// log shows the board is alive and what the session is doing.
package heartbeat

import (
	"context"
	"time"

	"winclink-go/bus"
	"winclink-go/services/config"
	"winclink-go/services/wifi"
	"winclink-go/types"
	"winclink-go/x/fmtx"
	"winclink-go/x/timex"
)

// Config is the retained "config/heartbeat" payload.
type Config struct {
	IntervalS int `json:"interval_s"`
}

type Service struct {
	// Print receives each line. Defaults to println.
	Print func(line string)

	state types.WiFiState
	stats types.WiFiStats
}

func (s *Service) line(now time.Time) string {
	l := now.Format("15:04:05") + " wifi " + s.state.Status
	if s.state.SSID != "" {
		l += fmtx.Sprintf(" %q %ddBm", s.state.SSID, s.state.RSSI)
	}
	return l + fmtx.Sprintf(" edges=%d pumps=%d replays=%d busy=%d", s.stats.Edges, s.stats.Pumps, s.stats.Replays, s.stats.Busy)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(config.Topic("heartbeat"))
	defer conn.Unsubscribe(cfgSub)
	stateSub := conn.Subscribe(wifi.TopicState)
	defer conn.Unsubscribe(stateSub)
	statsSub := conn.Subscribe(wifi.TopicStats)
	defer conn.Unsubscribe(statsSub)

	tick := time.NewTicker(10 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Print("[heartbeat] stopping")
			return
		case t := <-tick.C:
			s.Print("[heartbeat] " + s.line(t))
		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(types.WiFiState); ok {
				s.state = st
			}
		case msg := <-statsSub.Channel():
			if st, ok := msg.Payload.(types.WiFiStats); ok {
				s.stats = st
			}
		case msg := <-cfgSub.Channel():
			var c Config
			if err := config.Decode(msg.Payload, &c); err != nil || c.IntervalS <= 0 {
				s.Print("[heartbeat] ignoring config")
				continue
			}
			tick.Reset(timex.Ms(c.IntervalS * 1000))
		}
	}
}

// Start runs the service until ctx is cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Print == nil {
		s.Print = func(line string) { println(line) }
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
