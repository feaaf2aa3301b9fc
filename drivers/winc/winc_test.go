package winc

import (
	"errors"
	"strings"
	"testing"
	"time"

	"winclink-go/errcode"
)

func TestConnectionParametersValidate(t *testing.T) {
	long := []byte(strings.Repeat("s", 33))
	hexPSK := []byte(strings.Repeat("a1", 32))
	cases := []struct {
		name string
		p    ConnectionParameters
		want error
	}{
		{"wpa ok", WPAPSK([]byte("mynetwork"), []byte("mypassword"), DefaultChannel, 0), nil},
		{"hex psk", WPAPSK([]byte("mynetwork"), hexPSK, 6, 0), nil},
		{"empty ssid allowed", OpenNetwork(nil, ChannelAll, 0), nil},
		{"ssid too long", OpenNetwork(long, ChannelAll, 0), ErrBadSSID},
		{"short pass", WPAPSK([]byte("n"), []byte("short"), ChannelAll, 0), ErrBadPassphrase},
		{"bad hex", WPAPSK([]byte("n"), []byte(strings.Repeat("zz", 32)), ChannelAll, 0), ErrBadPassphrase},
		{"channel 0", OpenNetwork([]byte("n"), 0, 0), ErrBadChannel},
		{"channel 15", OpenNetwork([]byte("n"), 15, 0), ErrBadChannel},
		{"enterprise no user", Enterprise([]byte("n"), nil, []byte("pw"), 1, 0), ErrBadPassphrase},
		{"wep unsupported", ConnectionParameters{SSID: []byte("n"), Security: SecurityWEP, Channel: 1}, ErrBadSecurity},
	}
	for _, tc := range cases {
		err := tc.p.Validate()
		if err != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
		if err != nil && errcode.Of(err) != errcode.InvalidArgument {
			t.Fatalf("%s: code %q", tc.name, errcode.Of(err))
		}
	}
}

func TestFormatting(t *testing.T) {
	ci := ConnectionInfo{IP: [4]byte{192, 168, 1, 42}}
	if got := ci.IPString(); got != "192.168.1.42" {
		t.Fatalf("IPString = %q", got)
	}
	mac := MACAddress{0xf8, 0xf0, 0x05, 0x01, 0xab, 0x0c}
	if got := mac.String(); got != "f8:f0:05:01:ab:0c" {
		t.Fatalf("MAC = %q", got)
	}
	fw := FirmwareVersion{Major: 19, Minor: 6, Patch: 1, SVN: 16761}
	if got := fw.String(); got != "19.6.1 svnrev 16761" {
		t.Fatalf("fw = %q", got)
	}
	if ParseSecurity(SecurityWPAPSK.String()) != SecurityWPAPSK {
		t.Fatal("security round trip")
	}
}

type recSPI struct {
	txs int
	err error
}

func (s *recSPI) Tx(w, r []byte) error          { s.txs++; return s.err }
func (s *recSPI) Transfer(b byte) (byte, error) { return 0, s.err }

type lineLog struct{ events []string }

func (l *lineLog) out(name string) PinOutput {
	return func(level bool) {
		v := "0"
		if level {
			v = "1"
		}
		l.events = append(l.events, name+"="+v)
	}
}

func TestPowerOnSequence(t *testing.T) {
	var log lineLog
	var slept []time.Duration
	l := &Link{
		SPI:    &recSPI{},
		CS:     log.out("cs"),
		Reset:  log.out("rst"),
		Enable: log.out("en"),
		Wake:   log.out("wake"),
		Delay:  func(d time.Duration) { slept = append(slept, d) },
	}
	tm := DefaultTiming()
	if err := PowerOn(l, tm); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	want := "cs=1 rst=0 en=0 en=1 wake=1 rst=1"
	if got := strings.Join(log.events, " "); got != want {
		t.Fatalf("sequence %q, want %q", got, want)
	}
	if len(slept) != 3 || slept[2] != tm.BootSettle {
		t.Fatalf("delays %v", slept)
	}
}

func TestPowerOnRequiresLines(t *testing.T) {
	if err := PowerOn(&Link{}, DefaultTiming()); err != ErrNoLink {
		t.Fatalf("got %v", err)
	}
}

func TestLinkTxMapsBusErrors(t *testing.T) {
	var log lineLog
	spi := &recSPI{err: errors.New("bus stuck")}
	l := &Link{SPI: spi, CS: log.out("cs"), Reset: log.out("rst"), Enable: log.out("en")}
	err := l.Tx([]byte{1}, nil)
	if errcode.Of(err) != errcode.TransportError {
		t.Fatalf("code = %q", errcode.Of(err))
	}
	if strings.Join(log.events, " ") != "cs=0 cs=1" {
		t.Fatalf("cs not released: %v", log.events)
	}
}

func TestTimingNormalize(t *testing.T) {
	n := Timing{BootSettle: time.Hour, ScanWindow: time.Microsecond}.Normalize()
	if n.BootSettle != 5*time.Second {
		t.Fatalf("BootSettle not clamped: %v", n.BootSettle)
	}
	if n.ScanWindow != 10*time.Millisecond {
		t.Fatalf("ScanWindow not clamped: %v", n.ScanWindow)
	}
	if n.ResultSettle != 500*time.Millisecond {
		t.Fatalf("zero ResultSettle should default, got %v", n.ResultSettle)
	}
	if n.PollInterval != DefaultTiming().PollInterval {
		t.Fatalf("zero PollInterval should default, got %v", n.PollInterval)
	}
}

func TestRegistry(t *testing.T) {
	const name = "test_registry_driver"
	if _, ok := Lookup(name); !ok {
		Register(name, func(in OpenInput) (Driver, error) { return nil, errors.New("nope") })
	}
	if _, err := Open(name, OpenInput{}); err == nil || err.Error() != "nope" {
		t.Fatalf("Open = %v", err)
	}
	if _, err := Open("no_such_driver", OpenInput{}); errcode.Of(err) != errcode.UnknownDriver {
		t.Fatalf("unknown driver code = %q", errcode.Of(err))
	}
	defer func() {
		if recover() == nil {
			t.Fatal("duplicate Register should panic")
		}
	}()
	Register(name, nil)
}
