// Package wifi is the foreground owner of the co-processor session. It
// brings the session up from the retained "config/wifi" message, answers
// requests on "wifi/control/<verb>" and publishes retained state, scan
// results and counters under "wifi/".
package wifi

import (
	"context"
	"sync"
	"time"

	"winclink-go/bus"
	"winclink-go/drivers/winc"
	"winclink-go/errcode"
	"winclink-go/services/config"
	"winclink-go/services/wifi/internal/platform"
	"winclink-go/session"
	"winclink-go/types"
	"winclink-go/x/timex"
)

var (
	topicConfig  = config.Topic("wifi")
	TopicState   = bus.T("wifi", "state")
	TopicScan    = bus.T("wifi", "scan")
	TopicStats   = bus.T("wifi", "stats")
	topicControl = bus.T("wifi", "control")
)

// Control verbs.
const (
	VerbStatus  = "status"
	VerbConnect = "connect"
	VerbScan    = "scan"
	VerbInfo    = "info"
	VerbGPIO    = "gpio"
	VerbInit    = "init"
)

// ControlTopic is the request topic for verb.
func ControlTopic(verb string) bus.Topic { return topicControl.Append(verb) }

// NetworkStore keeps credentials for networks joined before.
type NetworkStore interface {
	Get(ssid string) (types.WiFiCredentials, bool, error)
	Save(c types.WiFiCredentials) error
}

// LinkFactory builds the host side of the wiring for a config.
type LinkFactory func(cfg types.WiFiConfig) (*winc.Link, winc.IRQLine, error)

type Options struct {
	Store NetworkStore // nil keeps credentials in memory
	Link  LinkFactory  // nil uses the target's platform pins
	// Delay is the foreground wait used while a scan or connect settles.
	Delay func(time.Duration)
	Now   func() int64
}

type Service struct {
	conn *bus.Connection
	opts Options

	cfg    types.WiFiConfig
	timing winc.Timing
	ctl    *session.Controller
	line   winc.IRQLine

	lastState types.WiFiState
	pending   *types.WiFiCredentials // saved once the link comes up
}

func New(conn *bus.Connection, opts Options) *Service {
	if opts.Store == nil {
		opts.Store = newMemStore()
	}
	if opts.Link == nil {
		opts.Link = platform.NewLink
	}
	if opts.Delay == nil {
		opts.Delay = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = timex.NowMs
	}
	return &Service{conn: conn, opts: opts}
}

// Start subscribes before returning, so requests published right after
// it are queued, then runs the service in the background.
func Start(ctx context.Context, conn *bus.Connection, opts Options) *Service {
	s := New(conn, opts)
	cfgSub, ctlSub := s.subscribe()
	go s.run(ctx, cfgSub, ctlSub)
	return s
}

func (s *Service) subscribe() (cfgSub, ctlSub *bus.Subscription) {
	return s.conn.Subscribe(topicConfig), s.conn.Subscribe(topicControl.Append(bus.SingleWild))
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	cfgSub, ctlSub := s.subscribe()
	s.run(ctx, cfgSub, ctlSub)
}

func (s *Service) run(ctx context.Context, cfgSub, ctlSub *bus.Subscription) {
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctlSub)

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	defer s.teardown()

	s.publishState()
	for {
		select {
		case <-ctx.Done():
			println("[wifi] stopping")
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			var cfg types.WiFiConfig
			if err := config.Decode(msg.Payload, &cfg); err != nil {
				println("[wifi] bad config:", err.Error())
				continue
			}
			if err := s.bringUp(ctx, cfg); err != nil {
				println("[wifi] bring-up failed:", err.Error())
			}
			if cfg.PollMS > 0 {
				tick.Reset(timex.Ms(cfg.PollMS))
			}
			s.publishState()
		case msg, ok := <-ctlSub.Channel():
			if !ok {
				return
			}
			s.handle(ctx, msg)
		case <-tick.C:
			s.poll()
		}
	}
}

func timingFrom(t types.WiFiTiming) winc.Timing {
	return winc.Timing{
		ResetHold:      timex.Ms(t.ResetHoldMS),
		EnableSettle:   timex.Ms(t.EnableSettleMS),
		BootSettle:     timex.Ms(t.BootSettleMS),
		ScanWindow:     timex.Ms(t.ScanWindowMS),
		ResultSettle:   timex.Ms(t.ResultSettleMS),
		ConnectSettle:  timex.Ms(t.ConnectSettleMS),
		ConnectTimeout: timex.Ms(t.ConnectTimeoutMS),
		PollInterval:   timex.Ms(t.PollIntervalMS),
	}.Normalize()
}

// bringUp replaces any running session with one built from cfg.
func (s *Service) bringUp(ctx context.Context, cfg types.WiFiConfig) error {
	s.teardown()
	s.cfg = cfg
	s.timing = timingFrom(cfg.Timing)

	link, line, err := s.opts.Link(cfg)
	if err != nil {
		return errcode.Wrap(errcode.NotReady, "link", err)
	}
	drv, err := winc.Open(cfg.Driver, winc.OpenInput{Link: link, Timing: s.timing})
	if err != nil {
		return err
	}
	if lo, ok := drv.(winc.LineOwner); ok {
		line = lo.SignalLine()
	}
	if line == nil {
		return errcode.New(errcode.NotReady, "link", "no signal line")
	}
	ctl, disp := session.Open(drv, line, session.Options{Timing: s.timing, Delay: s.opts.Delay})
	if err := line.Arm(disp.OnEdge); err != nil {
		return err
	}
	s.ctl, s.line = ctl, line

	if err := ctl.Initialize(); err != nil {
		return err
	}
	println("[wifi] initialized, driver", cfg.Driver)
	if cfg.AutoConnect && cfg.SSID != "" {
		req := types.WiFiConnect{
			SSID:       cfg.SSID,
			Passphrase: cfg.Passphrase,
			Security:   cfg.Security,
			Username:   cfg.Username,
			Channel:    cfg.Channel,
			CredIndex:  cfg.CredIndex,
		}
		if err := s.connect(ctx, req); err != nil {
			println("[wifi] auto-connect failed:", err.Error())
		}
	}
	return nil
}

func (s *Service) teardown() {
	if s.line != nil {
		_ = s.line.Disarm()
	}
	s.ctl, s.line = nil, nil
}

// Controller exposes the running session, or nil before bring-up.
func (s *Service) Controller() *session.Controller { return s.ctl }

func (s *Service) state() types.WiFiState {
	st := types.WiFiState{Status: winc.StatusNotInitialized.String(), TS: s.opts.Now()}
	if s.ctl == nil {
		return st
	}
	status := s.ctl.Status()
	st.Status = status.String()
	switch status {
	case winc.StatusConnected:
		if info, ok := s.ctl.ConnectionInfo(); ok {
			st.SSID = info.SSID
			st.IP = info.IPString()
			st.RSSI = int(info.RSSI)
			st.Security = info.Security.String()
		}
	case winc.StatusError:
		if f := s.ctl.Fault(); f != nil {
			st.Error = f.Error()
		}
	}
	return st
}

// publishState publishes wifi/state when anything but the timestamp changed.
func (s *Service) publishState() types.WiFiState {
	st := s.state()
	prev := s.lastState
	prev.TS = st.TS
	if prev != st || s.lastState.TS == 0 {
		s.lastState = st
		s.conn.Publish(s.conn.NewMessage(TopicState, st, true))
	}
	return st
}

func (s *Service) stats() types.WiFiStats {
	st := s.ctl.Stats()
	return types.WiFiStats{
		Edges:      st.Edges,
		Pumps:      st.Pumps,
		Skips:      st.Skips,
		LineSkips:  st.LineSkips,
		Replays:    st.Replays,
		Faults:     st.Faults,
		Ignored:    st.Ignored,
		Busy:       st.Busy,
		Overwrites: st.Overwrites,
		APCount:    int(s.ctl.APCount()),
		TS:         s.opts.Now(),
	}
}

func (s *Service) poll() {
	st := s.publishState()
	if s.ctl == nil {
		return
	}
	if p := s.pending; p != nil && st.Status == winc.StatusConnected.String() && st.SSID == p.SSID {
		s.save(*p)
		s.pending = nil
	}
	s.conn.Publish(s.conn.NewMessage(TopicStats, s.stats(), true))
}

func (s *Service) save(c types.WiFiCredentials) {
	c.LastUsedMS = s.opts.Now()
	if err := s.opts.Store.Save(c); err != nil {
		println("[wifi] saving credentials:", err.Error())
	}
}

type memStore struct {
	mu sync.Mutex
	m  map[string]types.WiFiCredentials
}

func newMemStore() *memStore { return &memStore{m: map[string]types.WiFiCredentials{}} }

func (m *memStore) Get(ssid string) (types.WiFiCredentials, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.m[ssid]
	return c, ok, nil
}

func (m *memStore) Save(c types.WiFiCredentials) error {
	m.mu.Lock()
	m.m[c.SSID] = c
	m.mu.Unlock()
	return nil
}
