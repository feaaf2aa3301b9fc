package config

// Board configs keyed by the device name placed in the context under
// CtxDeviceKey. Pin numbers are machine GPIOs.

const cfgPico = `{
  "wifi": {
    "driver": "sim",
    "auto_connect": false,
    "channel": 255,
    "poll_ms": 1000,
    "pins": {
      "spi": "spi0", "sck": 18, "sdo": 19, "sdi": 16, "hz": 12000000,
      "cs": "17", "reset": "20", "enable": "21", "wake": "22", "irq": "15"
    },
    "timing": {
      "boot_settle_ms": 50,
      "scan_window_ms": 2000,
      "connect_settle_ms": 500
    }
  },
  "console": {
    "uart": "uart0",
    "baud": 115200,
    "echo": true
  },
  "heartbeat": {
    "interval_s": 30
  }
}`

// Feather M0 WiFi style wiring: chip select on a dedicated line, IRQ on
// an edge-capable pin.
const cfgPico2 = `{
  "wifi": {
    "driver": "sim",
    "auto_connect": true,
    "poll_ms": 500,
    "pins": {
      "spi": "spi1", "sck": 10, "sdo": 11, "sdi": 12, "hz": 8000000,
      "cs": "13", "reset": "14", "enable": "9", "irq": "8"
    }
  },
  "console": {
    "uart": "uart0",
    "baud": 115200,
    "echo": true
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico":  []byte(cfgPico),
	"pico2": []byte(cfgPico2),
}
