// Package console is a line-oriented serial front end for the wifi
// service. Every command becomes one request on wifi/control.
package console

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/shlex"

	"winclink-go/bus"
	"winclink-go/services/config"
	"winclink-go/services/wifi"
	"winclink-go/types"
	"winclink-go/x/fmtx"
	"winclink-go/x/strconvx"
	"winclink-go/x/strx"
)

// Port is the byte stream the console runs over (a UART on boards).
type Port interface {
	io.Writer
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

type Options struct {
	Prompt  string
	Echo    bool
	Timeout time.Duration // per request; connect waits up to twice this
}

type Console struct {
	conn *bus.Connection
	port Port
	opts Options
}

const maxLine = 160

var errUsage = errors.New("usage")

func New(conn *bus.Connection, port Port, opts Options) *Console {
	opts.Prompt = strx.Coalesce(opts.Prompt, "wifi> ")
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Console{conn: conn, port: port, opts: opts}
}

// Run reads lines from the port until ctx is cancelled or the port fails.
func (c *Console) Run(ctx context.Context) error {
	var (
		buf  [32]byte
		line = make([]byte, 0, maxLine)
	)
	c.write(c.opts.Prompt)
	for {
		n, err := c.port.RecvSomeContext(ctx, buf[:])
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, b := range buf[:n] {
			switch b {
			case '\r', '\n':
				if c.opts.Echo {
					c.write("\r\n")
				}
				if len(line) > 0 {
					c.write(c.Exec(ctx, string(line)))
					line = line[:0]
				}
				c.write(c.opts.Prompt)
			case 0x08, 0x7f:
				if len(line) > 0 {
					line = line[:len(line)-1]
					if c.opts.Echo {
						c.write("\b \b")
					}
				}
			default:
				if len(line) < maxLine {
					line = append(line, b)
					if c.opts.Echo {
						_, _ = c.port.Write([]byte{b})
					}
				}
			}
		}
	}
}

func (c *Console) write(s string) { _, _ = c.port.Write([]byte(s)) }

const help = "commands:\r\n" +
	"  status\r\n" +
	"  scan [channel]\r\n" +
	"  connect <ssid> [passphrase] [channel]\r\n" +
	"  info\r\n" +
	"  gpio <pin> in|out|high|low\r\n" +
	"  init\r\n"

// Exec runs one command line and returns the text to print, ending in
// a line break.
func (c *Console) Exec(ctx context.Context, line string) string {
	args, err := shlex.Split(line)
	if err != nil {
		return "error: " + err.Error() + "\r\n"
	}
	if len(args) == 0 {
		return ""
	}
	out, err := c.run(ctx, args[0], args[1:])
	if errors.Is(err, errUsage) {
		return "usage: " + out + "\r\n"
	}
	if err != nil {
		return "error: " + err.Error() + "\r\n"
	}
	return out
}

func (c *Console) run(ctx context.Context, cmd string, args []string) (string, error) {
	switch cmd {
	case "help", "?":
		return help, nil

	case "status":
		var st types.WiFiState
		if err := call(ctx, c.conn, wifi.VerbStatus, nil, &st, c.opts.Timeout); err != nil {
			return "", err
		}
		return formatState(st), nil

	case "scan":
		var req types.WiFiScanRequest
		if len(args) > 1 {
			return "scan [channel]", errUsage
		}
		if len(args) == 1 {
			ch, err := strconvx.Atoi(args[0])
			if err != nil {
				return "scan [channel]", errUsage
			}
			req.Channel = ch
		}
		var sc types.WiFiScan
		if err := call(ctx, c.conn, wifi.VerbScan, req, &sc, 2*c.opts.Timeout); err != nil {
			return "", err
		}
		return formatScan(sc), nil

	case "connect":
		if len(args) < 1 || len(args) > 3 {
			return "connect <ssid> [passphrase] [channel]", errUsage
		}
		req := types.WiFiConnect{SSID: args[0], Wait: true}
		if len(args) > 1 {
			req.Passphrase = args[1]
		}
		if len(args) > 2 {
			ch, err := strconvx.Atoi(args[2])
			if err != nil {
				return "connect <ssid> [passphrase] [channel]", errUsage
			}
			req.Channel = ch
		}
		var st types.WiFiState
		if err := call(ctx, c.conn, wifi.VerbConnect, req, &st, 2*c.opts.Timeout); err != nil {
			return "", err
		}
		return formatState(st), nil

	case "info":
		var info types.WiFiChipInfo
		if err := call(ctx, c.conn, wifi.VerbInfo, nil, &info, c.opts.Timeout); err != nil {
			return "", err
		}
		return fmtx.Sprintf("driver %s firmware %s mac %s\r\n", info.Driver, info.Firmware, info.MAC), nil

	case "gpio":
		if len(args) != 2 {
			return "gpio <pin> in|out|high|low", errUsage
		}
		pin, err := strconvx.Atoi(args[0])
		if err != nil {
			return "gpio <pin> in|out|high|low", errUsage
		}
		req := types.WiFiGPIO{Pin: pin}
		t, f := true, false
		switch args[1] {
		case "in":
			req.Output = &f
		case "out":
			req.Output = &t
		case "high":
			req.Output, req.Level = &t, &t
		case "low":
			req.Output, req.Level = &t, &f
		default:
			return "gpio <pin> in|out|high|low", errUsage
		}
		if err := call[struct{}](ctx, c.conn, wifi.VerbGPIO, req, nil, c.opts.Timeout); err != nil {
			return "", err
		}
		return "ok\r\n", nil

	case "init":
		var st types.WiFiState
		if err := call(ctx, c.conn, wifi.VerbInit, nil, &st, c.opts.Timeout); err != nil {
			return "", err
		}
		return formatState(st), nil
	}
	return "", errors.New("unknown command " + cmd + " (try help)")
}

type replyError struct{ code, msg string }

func (e *replyError) Error() string { return e.code + ": " + e.msg }

// call sends one control request and decodes the reply data into dst.
func call[T any](ctx context.Context, conn *bus.Connection, verb string, payload any, dst *T, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	msg, err := conn.RequestWait(ctx, conn.NewMessage(wifi.ControlTopic(verb), payload, false))
	if err != nil {
		return errors.New("no reply from wifi service")
	}
	var r types.Reply
	if err := config.Decode(msg.Payload, &r); err != nil {
		return err
	}
	if !r.OK {
		return &replyError{code: r.Code, msg: r.Error}
	}
	if dst == nil || r.Data == nil {
		return nil
	}
	return config.Decode(r.Data, dst)
}

func formatState(st types.WiFiState) string {
	s := st.Status
	if st.SSID != "" {
		s += fmtx.Sprintf(" ssid=%q ip=%s rssi=%d security=%s", st.SSID, st.IP, st.RSSI, st.Security)
	}
	if st.Error != "" {
		s += " error=" + st.Error
	}
	return s + "\r\n"
}

func formatScan(sc types.WiFiScan) string {
	var s string
	for _, n := range sc.Networks {
		s += fmtx.Sprintf("%2d %-32s ch=%-2d rssi=%d %s\r\n", n.Index, n.SSID, n.Channel, n.RSSI, n.Security)
	}
	return s + strconvx.Itoa(len(sc.Networks)) + " networks\r\n"
}
