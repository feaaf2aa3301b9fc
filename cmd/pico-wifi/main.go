//go:build rp2040 || rp2350

package main

import (
	"context"
	"encoding/json"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"winclink-go/bus"
	_ "winclink-go/drivers/winc/wincsim"
	"winclink-go/services/config"
	"winclink-go/services/console"
	"winclink-go/services/heartbeat"
	"winclink-go/services/wifi"
	"winclink-go/types"
)

// Set with -ldflags "-X main.device=pico2 -X main.ssid=... -X main.passphrase=...".
var (
	device     = "pico"
	ssid       string
	passphrase string
)

// withCredentials overlays the build-time network on the board's wifi block.
func withCredentials(raw []byte) []byte {
	var m map[string]map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m["wifi"] == nil {
		return raw
	}
	m["wifi"]["ssid"] = ssid
	m["wifi"]["passphrase"] = passphrase
	m["wifi"]["auto_connect"] = true
	out, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return out
}

func uartFor(c types.ConsoleConfig) *uartx.UART {
	hw := uartx.UART0
	if c.UART == "uart1" {
		hw = uartx.UART1
	}
	cfg := uartx.UARTConfig{BaudRate: c.Baud}
	if c.TX != 0 || c.RX != 0 {
		cfg.TX, cfg.RX = machine.Pin(c.TX), machine.Pin(c.RX)
	}
	_ = hw.Configure(cfg)
	switch c.Parity {
	case "even":
		_ = hw.SetFormat(8, 1, uartx.ParityEven)
	case "odd":
		_ = hw.SetFormat(8, 1, uartx.ParityOdd)
	}
	return hw
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot", device)

	if ssid != "" {
		base := config.EmbeddedConfigLookup
		config.EmbeddedConfigLookup = func(dev string) ([]byte, bool) {
			raw, ok := base(dev)
			if !ok {
				return raw, ok
			}
			return withCredentials(raw), true
		}
	}

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, device)
	b := bus.NewBus(4)
	ui := b.NewConnection("ui")

	println("[main] starting wifi …")
	wifi.Start(ctx, b.NewConnection("wifi"), wifi.Options{})
	_ = (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	sub := ui.Subscribe(config.Topic("console"))
	var cc types.ConsoleConfig
	select {
	case m := <-sub.Channel():
		if err := config.Decode(m.Payload, &cc); err != nil {
			println("[main] bad console config:", err.Error())
		}
	case <-time.After(2 * time.Second):
		println("[main] no console config, using uart0")
	}
	ui.Unsubscribe(sub)

	con := console.New(b.NewConnection("console"), uartFor(cc), console.Options{
		Prompt: cc.Prompt,
		Echo:   cc.Echo,
	})
	println("[main] console on", cc.UART)
	for {
		if err := con.Run(ctx); err != nil {
			println("[main] console:", err.Error())
			time.Sleep(time.Second)
		}
	}
}
