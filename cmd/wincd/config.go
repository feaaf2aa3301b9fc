package main

import (
	"github.com/jessevdk/go-flags"

	"winclink-go/types"
)

type pinOptions struct {
	SPI    string `long:"spi" description:"spireg port name, empty for the first port"`
	Hz     int    `long:"hz" default:"12000000" description:"SPI clock in Hz"`
	CS     string `long:"cs" default:"GPIO8" description:"Chip select line"`
	Reset  string `long:"reset" default:"GPIO25" description:"Reset line (active low)"`
	Enable string `long:"enable" default:"GPIO24" description:"Chip enable line"`
	Wake   string `long:"wake" description:"Wake line, if wired"`
	IRQ    string `long:"irq" default:"GPIO22" description:"Interrupt line from the chip"`
}

type wifiOptions struct {
	SSID        string `long:"ssid" description:"Network to join at startup"`
	Passphrase  string `long:"passphrase" description:"WPA passphrase or 64 hex digit PSK"`
	Security    string `long:"security" choice:"open" choice:"wpa_psk" choice:"802.1x" description:"Security type, inferred when empty"`
	Username    string `long:"username" description:"802.1X identity"`
	Channel     int    `long:"channel" description:"Channel 1-14, 0 for any"`
	AutoConnect bool   `long:"autoconnect" description:"Join --ssid (or the last saved network) after initialize"`
	PollMS      int    `long:"pollms" default:"1000" description:"State and stats publication period"`
	ScanWindow  int    `long:"scanwindowms" description:"How long a scan runs before results are collected"`
}

type metricsOptions struct {
	Listen string `long:"listen" default:"127.0.0.1:9470" description:"Address serving /metrics, empty to disable"`
}

type daemonConfig struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	Debug       bool   `long:"debug" description:"Start in debug mode"`
	DataDir     string `long:"datadir" default:"/var/lib/wincd" description:"Directory holding networks.db"`
	Driver      string `long:"driver" default:"sim" description:"Registered co-processor driver"`
	Link        string `long:"link" default:"none" choice:"none" choice:"periph" description:"Host wiring: none (driver-provided) or periph"`
	Console     bool   `long:"console" description:"Run the command console on stdin"`

	Pins    pinOptions     `group:"Pins" namespace:"pin"`
	WiFi    wifiOptions    `group:"WiFi" namespace:"wifi"`
	Metrics metricsOptions `group:"Metrics" namespace:"metrics"`
}

func loadConfig(args []string) (*daemonConfig, error) {
	cfg := &daemonConfig{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// wifiConfig is the retained config/wifi payload built from the flags.
func (c *daemonConfig) wifiConfig() types.WiFiConfig {
	return types.WiFiConfig{
		Driver:      c.Driver,
		SSID:        c.WiFi.SSID,
		Passphrase:  c.WiFi.Passphrase,
		Security:    c.WiFi.Security,
		Username:    c.WiFi.Username,
		Channel:     c.WiFi.Channel,
		AutoConnect: c.WiFi.AutoConnect && c.WiFi.SSID != "",
		PollMS:      c.WiFi.PollMS,
		Pins: types.WiFiPins{
			SPI:    c.Pins.SPI,
			HzSPI:  c.Pins.Hz,
			CS:     c.Pins.CS,
			Reset:  c.Pins.Reset,
			Enable: c.Pins.Enable,
			Wake:   c.Pins.Wake,
			IRQ:    c.Pins.IRQ,
		},
		Timing: types.WiFiTiming{ScanWindowMS: c.WiFi.ScanWindow},
	}
}
