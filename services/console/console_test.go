package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"winclink-go/bus"
	"winclink-go/errcode"
	"winclink-go/services/wifi"
	"winclink-go/types"
)

// fakeWiFi answers control requests with canned replies and records the
// decoded payloads.
type fakeWiFi struct {
	mu   sync.Mutex
	seen map[string]any
}

func serve(t *testing.T, b *bus.Bus) *fakeWiFi {
	t.Helper()
	f := &fakeWiFi{seen: map[string]any{}}
	conn := b.NewConnection("wifi")
	sub := conn.Subscribe(bus.T("wifi", "control", bus.SingleWild))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-sub.Channel():
				verb := m.Topic[len(m.Topic)-1].(string)
				f.mu.Lock()
				f.seen[verb] = m.Payload
				f.mu.Unlock()
				conn.Reply(m, f.reply(verb, m.Payload), false)
			}
		}
	}()
	return f
}

func (f *fakeWiFi) reply(verb string, p any) types.Reply {
	switch verb {
	case wifi.VerbStatus:
		return types.OK(types.WiFiState{Status: "idle"})
	case wifi.VerbConnect:
		req := p.(types.WiFiConnect)
		if req.SSID == "nowhere" {
			return types.Fail(string(errcode.Timeout), "still connecting")
		}
		return types.OK(types.WiFiState{Status: "connected", SSID: req.SSID, IP: "192.168.1.100", RSSI: -42, Security: "wpa_psk"})
	case wifi.VerbScan:
		return types.OK(types.WiFiScan{Networks: []types.WiFiNetwork{
			{Index: 0, SSID: "mynetwork", RSSI: -42, Channel: 6, Security: "wpa_psk"},
			{Index: 1, SSID: "guest", RSSI: -67, Channel: 1, Security: "open"},
		}})
	case wifi.VerbInfo:
		return types.OK(types.WiFiChipInfo{Firmware: "19.6.1 svnrev 16761", MAC: "f8:f0:05:00:00:01", Driver: "sim"})
	case wifi.VerbGPIO:
		return types.OK(nil)
	case wifi.VerbInit:
		return types.Fail(string(errcode.InvalidState), "already initialized")
	}
	return types.Fail(string(errcode.Unsupported), verb)
}

func (f *fakeWiFi) payload(verb string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[verb]
}

func newConsole(t *testing.T) (*Console, *fakeWiFi) {
	b := bus.NewBus(8)
	f := serve(t, b)
	return New(b.NewConnection("console"), nil, Options{Timeout: time.Second}), f
}

func TestExecCommands(t *testing.T) {
	c, f := newConsole(t)
	ctx := context.Background()

	cases := []struct {
		line string
		want []string
	}{
		{"status", []string{"idle\r\n"}},
		{`connect "my network" "pass word" 6`, []string{"connected", `ssid="my network"`, "ip=192.168.1.100", "rssi=-42"}},
		{"scan", []string{"mynetwork", "ch=6", "guest", "2 networks"}},
		{"info", []string{"driver sim firmware 19.6.1 svnrev 16761 mac f8:f0:05:00:00:01"}},
		{"gpio 5 high", []string{"ok"}},
		{"init", []string{"error: invalid_state: already initialized"}},
		{"connect nowhere", []string{"error: timeout"}},
		{"help", []string{"scan [channel]", "gpio <pin>"}},
		{"reboot", []string{"unknown command reboot"}},
		{"gpio 5 sideways", []string{"usage: gpio"}},
		{"scan x", []string{"usage: scan"}},
		{`connect "unterminated`, []string{"error:"}},
	}
	for _, tc := range cases {
		got := c.Exec(ctx, tc.line)
		for _, w := range tc.want {
			if !strings.Contains(got, w) {
				t.Fatalf("%q: got %q, want %q", tc.line, got, w)
			}
		}
	}

	req, _ := f.payload(wifi.VerbConnect).(types.WiFiConnect)
	if req.SSID != "nowhere" || !req.Wait {
		t.Fatalf("last connect = %+v", req)
	}
	g, _ := f.payload(wifi.VerbGPIO).(types.WiFiGPIO)
	if g.Pin != 5 || g.Output == nil || !*g.Output || g.Level == nil || !*g.Level {
		t.Fatalf("gpio payload = %+v", g)
	}
}

func TestConnectQuotedArgs(t *testing.T) {
	c, f := newConsole(t)
	c.Exec(context.Background(), `connect "my network" "pass word" 6`)
	req, _ := f.payload(wifi.VerbConnect).(types.WiFiConnect)
	if req.SSID != "my network" || req.Passphrase != "pass word" || req.Channel != 6 {
		t.Fatalf("connect payload = %+v", req)
	}
}

func TestScanChannelArg(t *testing.T) {
	c, f := newConsole(t)
	c.Exec(context.Background(), "scan 11")
	if req, _ := f.payload(wifi.VerbScan).(types.WiFiScanRequest); req.Channel != 11 {
		t.Fatalf("scan payload = %+v", req)
	}
}

func TestNoService(t *testing.T) {
	b := bus.NewBus(8)
	c := New(b.NewConnection("console"), nil, Options{Timeout: 20 * time.Millisecond})
	if got := c.Exec(context.Background(), "status"); !strings.Contains(got, "no reply") {
		t.Fatalf("got %q", got)
	}
}

// pipePort feeds queued chunks to the console and records its output.
type pipePort struct {
	mu  sync.Mutex
	out bytes.Buffer
	in  chan []byte
}

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func (p *pipePort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case b := <-p.in:
		return copy(buf, b), nil
	}
}

func (p *pipePort) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

func TestRunLineEditing(t *testing.T) {
	b := bus.NewBus(8)
	serve(t, b)
	port := &pipePort{in: make(chan []byte, 4)}
	c := New(b.NewConnection("console"), port, Options{Echo: true, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	port.in <- []byte("stat")
	port.in <- []byte("ux\x7f\x7fus\r")

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(port.String(), "idle\r\n") {
		if time.Now().After(deadline) {
			t.Fatalf("output = %q", port.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	out := port.String()
	if !strings.HasPrefix(out, "wifi> ") || !strings.Contains(out, "\b \b") {
		t.Fatalf("output = %q", out)
	}
}
