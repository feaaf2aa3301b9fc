package wifi

import (
	"context"
	"time"

	"winclink-go/bus"
	"winclink-go/drivers/winc"
	"winclink-go/errcode"
	"winclink-go/services/config"
	"winclink-go/session"
	"winclink-go/types"
)

func (s *Service) handle(ctx context.Context, msg *bus.Message) {
	verb, _ := msg.Topic[len(msg.Topic)-1].(string)
	var (
		data any
		err  error
	)
	switch verb {
	case VerbStatus:
		data = s.publishState()
	case VerbConnect:
		var req types.WiFiConnect
		if err = decode(msg.Payload, &req); err == nil {
			err = s.connect(ctx, req)
			data = s.publishState()
		}
	case VerbScan:
		var req types.WiFiScanRequest
		if err = decode(msg.Payload, &req); err == nil {
			data, err = s.scan(req)
		}
	case VerbInfo:
		data, err = s.info()
	case VerbGPIO:
		var req types.WiFiGPIO
		if err = decode(msg.Payload, &req); err == nil {
			err = s.gpio(req)
		}
	case VerbInit:
		if err = s.ready("init"); err == nil {
			err = s.ctl.Initialize()
			data = s.publishState()
		}
	default:
		err = errcode.New(errcode.Unsupported, "wifi", "unknown verb "+verb)
	}
	if err != nil {
		s.conn.Reply(msg, types.Fail(string(errcode.Of(err)), err.Error()), false)
		return
	}
	s.conn.Reply(msg, types.OK(data), false)
}

// decode accepts an absent payload as the zero request.
func decode[T any](p any, dst *T) error {
	if p == nil {
		return nil
	}
	if err := config.Decode(p, dst); err != nil {
		return errcode.Wrap(errcode.InvalidPayload, "decode", err)
	}
	return nil
}

func (s *Service) ready(op string) error {
	if s.ctl == nil {
		return errcode.New(errcode.NotReady, op, "no session configured")
	}
	return nil
}

func channelOf(n int) (winc.Channel, error) {
	if n == 0 {
		return winc.ChannelAll, nil
	}
	if n < 0 || n > 255 {
		return 0, winc.ErrBadChannel
	}
	return winc.Channel(n), nil
}

func params(req types.WiFiConnect) (winc.ConnectionParameters, error) {
	ch, err := channelOf(req.Channel)
	if err != nil {
		return winc.ConnectionParameters{}, err
	}
	sec := winc.ParseSecurity(req.Security)
	if req.Security == "" {
		sec = winc.SecurityWPAPSK
		if req.Passphrase == "" {
			sec = winc.SecurityOpen
		}
	}
	p := winc.ConnectionParameters{
		SSID:     []byte(req.SSID),
		Security: sec,
		Channel:  ch,
		Index:    uint8(req.CredIndex),
	}
	if sec == winc.SecurityEnterprise {
		p.Username = []byte(req.Username)
		p.Password = []byte(req.Passphrase)
	} else {
		p.Passphrase = []byte(req.Passphrase)
	}
	return p, nil
}

// connect fills missing credentials from the store and requests
// association. Credentials are saved once the link is up.
func (s *Service) connect(ctx context.Context, req types.WiFiConnect) error {
	const op = "connect"
	if err := s.ready(op); err != nil {
		return err
	}
	if req.SSID == "" {
		return errcode.New(errcode.InvalidArgument, op, "ssid required")
	}
	if req.Passphrase == "" && req.Security == "" {
		saved, ok, err := s.opts.Store.Get(req.SSID)
		if err != nil {
			println("[wifi] credential lookup:", err.Error())
		}
		if ok {
			req.Passphrase, req.Security, req.Username = saved.Passphrase, saved.Security, saved.Username
			if req.Channel == 0 {
				req.Channel = saved.Channel
			}
			if req.CredIndex == 0 {
				req.CredIndex = saved.CredIndex
			}
		}
	}
	p, err := params(req)
	if err != nil {
		return errcode.Wrap(errcode.InvalidArgument, op, err)
	}
	if err := s.ctl.Connect(p); err != nil {
		return err
	}
	s.pending = &types.WiFiCredentials{
		SSID:       req.SSID,
		Passphrase: req.Passphrase,
		Security:   p.Security.String(),
		Username:   req.Username,
		Channel:    req.Channel,
		CredIndex:  req.CredIndex,
	}
	if !req.Wait {
		return nil
	}
	if err := s.ctl.WaitStatus(ctx, winc.StatusConnected, 0); err != nil {
		return err
	}
	s.poll()
	return nil
}

// scan runs one scan to completion and publishes the collected entries
// retained on wifi/scan.
func (s *Service) scan(req types.WiFiScanRequest) (types.WiFiScan, error) {
	const op = "scan"
	out := types.WiFiScan{Channel: req.Channel, Networks: []types.WiFiNetwork{}}
	if err := s.ready(op); err != nil {
		return out, err
	}
	ch, err := channelOf(req.Channel)
	if err != nil {
		return out, errcode.Wrap(errcode.InvalidArgument, op, err)
	}
	if err := s.ctl.RequestScan(ch); err != nil {
		return out, err
	}
	s.await(s.timing.ScanWindow, func() bool { return s.ctl.ScanPhase() != session.ScanScanning })
	n := s.ctl.APCount()
	for i := uint8(0); i < n; i++ {
		if err := s.ctl.FetchScanEntry(i); err != nil {
			return out, err
		}
		// The entry is staged by the interrupt that answers the request.
		var e winc.ScanEntry
		if !s.await(s.timing.ResultSettle, func() (ok bool) { e, ok = s.ctl.TakeScanResult(); return ok }) {
			println("[wifi] scan entry", i, "not delivered")
			continue
		}
		out.Networks = append(out.Networks, types.WiFiNetwork{
			Index:    int(e.Index),
			SSID:     e.SSID,
			RSSI:     int(e.RSSI),
			Channel:  int(e.Channel),
			Security: e.Security.String(),
		})
	}
	out.TS = s.opts.Now()
	s.conn.Publish(s.conn.NewMessage(TopicScan, out, true))
	return out, nil
}

// await polls done every PollInterval until it holds or bound has passed.
func (s *Service) await(bound time.Duration, done func() bool) bool {
	poll := s.timing.PollInterval
	for waited := time.Duration(0); ; waited += poll {
		if done() {
			return true
		}
		if waited >= bound {
			return false
		}
		s.opts.Delay(poll)
	}
}

func (s *Service) info() (types.WiFiChipInfo, error) {
	out := types.WiFiChipInfo{Driver: s.cfg.Driver}
	if err := s.ready("info"); err != nil {
		return out, err
	}
	fw, err := s.ctl.FirmwareVersion()
	if err != nil {
		return out, err
	}
	mac, err := s.ctl.MACAddress()
	if err != nil {
		return out, err
	}
	out.Firmware, out.MAC = fw.String(), mac.String()
	return out, nil
}

func (s *Service) gpio(req types.WiFiGPIO) error {
	const op = "gpio"
	if err := s.ready(op); err != nil {
		return err
	}
	if req.Pin < 0 || req.Pin > 255 {
		return errcode.New(errcode.InvalidArgument, op, "pin out of range")
	}
	pin := winc.GPIO(req.Pin)
	if req.Output != nil {
		dir := winc.GPIOInput
		if *req.Output {
			dir = winc.GPIOOutput
		}
		if err := s.ctl.SetGPIO(pin, dir); err != nil {
			return err
		}
	}
	if req.Level != nil {
		v := winc.GPIOLow
		if *req.Level {
			v = winc.GPIOHigh
		}
		if err := s.ctl.SetGPIOValue(pin, v); err != nil {
			return err
		}
	}
	return nil
}
