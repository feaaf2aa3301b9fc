// Command wincd runs the co-processor session on a Linux host: the wifi
// service on an in-process bus, saved networks in bbolt, Prometheus
// metrics and an optional console on stdin.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"winclink-go/bus"
	"winclink-go/drivers/winc"
	"winclink-go/drivers/winc/wincperiph"
	_ "winclink-go/drivers/winc/wincsim"
	"winclink-go/services/config"
	"winclink-go/services/console"
	"winclink-go/services/wifi"
	"winclink-go/services/wifi/netstore"
	"winclink-go/types"
)

var (
	// Version and Commit are set with -ldflags at build time.
	Version string
	Commit  string
)

// periphLinks opens the periph board for each config, closing the one
// before it.
type periphLinks struct {
	mu  sync.Mutex
	cur *wincperiph.Board
}

func (p *periphLinks) open(cfg types.WiFiConfig) (*winc.Link, winc.IRQLine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	b, err := wincperiph.Open(wincperiph.Options{
		SPI:    cfg.Pins.SPI,
		Hz:     cfg.Pins.HzSPI,
		CS:     cfg.Pins.CS,
		Reset:  cfg.Pins.Reset,
		Enable: cfg.Pins.Enable,
		Wake:   cfg.Pins.Wake,
		IRQ:    cfg.Pins.IRQ,
	})
	if err != nil {
		return nil, nil, err
	}
	p.cur = b
	return b.Link(), b.Line(), nil
}

func (p *periphLinks) closeLocked() {
	if p.cur == nil {
		return
	}
	if err := p.cur.Close(); err != nil {
		log.Warnf("Closing periph board: %v", err)
	}
	p.cur = nil
}

func (p *periphLinks) Close() {
	p.mu.Lock()
	p.closeLocked()
	p.mu.Unlock()
}

func noLink(types.WiFiConfig) (*winc.Link, winc.IRQLine, error) { return nil, nil, nil }

func wincdMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	cfg, err := loadConfig(os.Args[1:])
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}
	log.Infof("Version %s (commit %s)", Version, Commit)
	if cfg.ShowVersion {
		return nil
	}
	if _, ok := winc.Lookup(cfg.Driver); !ok {
		return errors.Errorf("Unknown driver %q, have %v", cfg.Driver, winc.Names())
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return errors.Wrap(err, "Could not create data dir")
	}
	store, err := netstore.Open(filepath.Join(cfg.DataDir, "networks.db"))
	if err != nil {
		return errors.Wrap(err, "Could not open networks.db")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("Could not close networks.db: %v", err)
		} else {
			log.Info("Closed networks.db.")
		}
	}()
	if saved, err := store.List(); err == nil {
		log.Infof("%d saved networks", len(saved))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b := bus.NewBus(16)
	opts := wifi.Options{Store: store, Link: noLink}
	if cfg.Link == "periph" {
		links := &periphLinks{}
		defer links.Close()
		opts.Link = links.open
	}
	wifi.Start(ctx, b.NewConnection("wifi"), opts)

	wcfg := cfg.wifiConfig()
	if cfg.WiFi.AutoConnect && wcfg.SSID == "" {
		if saved, err := store.List(); err == nil && len(saved) > 0 {
			wcfg.SSID, wcfg.AutoConnect = saved[0].SSID, true
			log.Infof("Auto-connecting to last used network %q", wcfg.SSID)
		}
	}
	ctl := b.NewConnection("wincd")
	ctl.Publish(ctl.NewMessage(config.Topic("wifi"), wcfg, true))
	log.Infof("Started wifi service with driver %s over %s link", cfg.Driver, cfg.Link)

	go logState(ctx, b.NewConnection("log"))

	if cfg.Metrics.Listen != "" {
		m, err := newMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return errors.Wrap(err, "Could not register metrics")
		}
		go m.run(ctx, b.NewConnection("metrics"))
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: promhttp.Handler()}
		go func() {
			log.Infof("Serving metrics on %s", cfg.Metrics.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("Metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	if cfg.Console {
		con := console.New(b.NewConnection("console"), newStdio(os.Stdin, os.Stdout), console.Options{})
		go func() {
			if err := con.Run(ctx); err != nil {
				log.Debugf("Console stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Info("Shutting down.")
	return nil
}

// logState logs every wifi/state change.
func logState(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(wifi.TopicState)
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.Channel():
			st, ok := msg.Payload.(types.WiFiState)
			if !ok {
				continue
			}
			entry := log.WithField("status", st.Status)
			if st.SSID != "" {
				entry = entry.WithFields(log.Fields{"ssid": st.SSID, "ip": st.IP, "rssi": st.RSSI})
			}
			if st.Error != "" {
				entry.WithField("error", st.Error).Warn("wifi state")
				continue
			}
			entry.Info("wifi state")
		}
	}
}

func main() {
	if err := wincdMain(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
