package types

// WiFiConfig is supplied on retained topic "config/wifi".
type WiFiConfig struct {
	Driver string `json:"driver"` // registered winc driver, e.g. "sim"

	SSID       string `json:"ssid,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
	Security   string `json:"security,omitempty"` // "open", "wpa_psk", "802.1x"
	Username   string `json:"username,omitempty"`
	Channel    int    `json:"channel,omitempty"` // 0 or 255 = any
	CredIndex  int    `json:"cred_index,omitempty"`

	AutoConnect bool `json:"auto_connect,omitempty"`

	Pins   WiFiPins   `json:"pins"`
	Timing WiFiTiming `json:"timing"`

	// PollMS is the state/stats publication period.
	PollMS int `json:"poll_ms,omitempty"`
}

// WiFiPins names the host lines wired to the co-processor. Numbers are
// board GPIOs on MCUs and gpioreg names on Linux.
type WiFiPins struct {
	SPI    string `json:"spi,omitempty"` // "spi0", "/dev/spidev0.0"
	SCK    int    `json:"sck,omitempty"`
	SDO    int    `json:"sdo,omitempty"`
	SDI    int    `json:"sdi,omitempty"`
	CS     string `json:"cs"`
	Reset  string `json:"reset"`
	Enable string `json:"enable"`
	Wake   string `json:"wake,omitempty"`
	IRQ    string `json:"irq"`
	HzSPI  int    `json:"hz,omitempty"`
}

// WiFiTiming overrides winc.Timing; zero fields keep defaults.
type WiFiTiming struct {
	ResetHoldMS      int `json:"reset_hold_ms,omitempty"`
	EnableSettleMS   int `json:"enable_settle_ms,omitempty"`
	BootSettleMS     int `json:"boot_settle_ms,omitempty"`
	ScanWindowMS     int `json:"scan_window_ms,omitempty"`
	ResultSettleMS   int `json:"result_settle_ms,omitempty"`
	ConnectSettleMS  int `json:"connect_settle_ms,omitempty"`
	ConnectTimeoutMS int `json:"connect_timeout_ms,omitempty"`
	PollIntervalMS   int `json:"poll_interval_ms,omitempty"`
}

// WiFiState is retained on "wifi/state".
type WiFiState struct {
	Status   string `json:"status"`
	SSID     string `json:"ssid,omitempty"`
	IP       string `json:"ip,omitempty"`
	RSSI     int    `json:"rssi,omitempty"`
	Security string `json:"security,omitempty"`
	Error    string `json:"error,omitempty"`
	TS       int64  `json:"ts_ms"`
}

// WiFiNetwork is one scan result.
type WiFiNetwork struct {
	Index    int    `json:"index"`
	SSID     string `json:"ssid"`
	RSSI     int    `json:"rssi"`
	Channel  int    `json:"channel"`
	Security string `json:"security"`
}

// WiFiScan is retained on "wifi/scan" after each collected scan.
type WiFiScan struct {
	Channel  int           `json:"channel"`
	Networks []WiFiNetwork `json:"networks"`
	TS       int64         `json:"ts_ms"`
}

// WiFiScanRequest is the payload of "wifi/control/scan".
type WiFiScanRequest struct {
	Channel int `json:"channel,omitempty"`
}

// WiFiConnect is the payload of "wifi/control/connect". An empty
// Passphrase is looked up in the saved networks.
type WiFiConnect struct {
	SSID       string `json:"ssid"`
	Passphrase string `json:"passphrase,omitempty"`
	Security   string `json:"security,omitempty"`
	Username   string `json:"username,omitempty"`
	Channel    int    `json:"channel,omitempty"`
	CredIndex  int    `json:"cred_index,omitempty"`
	// Wait blocks the reply until associated or the connect timeout.
	Wait bool `json:"wait,omitempty"`
}

// WiFiGPIO is the payload of "wifi/control/gpio".
type WiFiGPIO struct {
	Pin    int   `json:"pin"`
	Output *bool `json:"output,omitempty"`
	Level  *bool `json:"level,omitempty"`
}

// WiFiChipInfo answers "wifi/control/info".
type WiFiChipInfo struct {
	Firmware string `json:"firmware"`
	MAC      string `json:"mac"`
	Driver   string `json:"driver"`
}

// WiFiStats is retained on "wifi/stats".
type WiFiStats struct {
	Edges      uint32 `json:"edges"`
	Pumps      uint32 `json:"pumps"`
	Skips      uint32 `json:"skips"`
	LineSkips  uint32 `json:"line_skips"`
	Replays    uint32 `json:"replays"`
	Faults     uint32 `json:"faults"`
	Ignored    uint32 `json:"ignored"`
	Busy       uint32 `json:"busy"`
	Overwrites uint32 `json:"overwrites"`
	APCount    int    `json:"ap_count"`
	TS         int64  `json:"ts_ms"`
}

// WiFiCredentials is a saved network.
type WiFiCredentials struct {
	SSID       string `json:"ssid"`
	Passphrase string `json:"passphrase,omitempty"`
	Security   string `json:"security"`
	Username   string `json:"username,omitempty"`
	Channel    int    `json:"channel,omitempty"`
	CredIndex  int    `json:"cred_index,omitempty"`
	LastUsedMS int64  `json:"last_used_ms,omitempty"`
}
