// Package winc describes the host-side contract of an ATWINC1500-class
// SPI Wi-Fi co-processor: the value types exchanged with it, the
// synchronous driver surface, and the control lines that wire it to the
// host.
//
// The driver itself (the SPI host-interface protocol) is supplied by an
// implementation registered with Register. All driver calls must be made
// by whoever currently holds the driver exclusively; the package performs
// no locking of its own.
package winc

import (
	"winclink-go/errcode"
	"winclink-go/x/conv"
)

// Status is the chip-level network status.
type Status uint8

const (
	StatusNotInitialized Status = iota
	StatusIdle
	StatusConnecting
	StatusConnected
	StatusDisconnected
	StatusScanning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusScanning:
		return "scanning"
	case StatusError:
		return "error"
	default:
		return "not_initialized"
	}
}

// Channel selects a 2.4 GHz channel. ChannelAll scans or joins on any.
type Channel uint8

const (
	ChannelAll Channel = 255
	ChannelMin Channel = 1
	ChannelMax Channel = 14
)

// DefaultChannel is the channel selector used when none is given.
const DefaultChannel = ChannelAll

func (c Channel) Valid() bool { return c == ChannelAll || (c >= ChannelMin && c <= ChannelMax) }

// Security is the negotiated or advertised security type.
type Security uint8

const (
	SecurityInvalid Security = iota
	SecurityOpen
	SecurityWPAPSK
	SecurityWEP
	SecurityEnterprise // 802.1X
)

func (s Security) String() string {
	switch s {
	case SecurityOpen:
		return "open"
	case SecurityWPAPSK:
		return "wpa_psk"
	case SecurityWEP:
		return "wep"
	case SecurityEnterprise:
		return "802.1x"
	default:
		return "invalid"
	}
}

// ParseSecurity is the inverse of Security.String.
func ParseSecurity(s string) Security {
	switch s {
	case "open":
		return SecurityOpen
	case "wpa_psk":
		return SecurityWPAPSK
	case "wep":
		return SecurityWEP
	case "802.1x":
		return SecurityEnterprise
	}
	return SecurityInvalid
}

// ConnectionInfo is a snapshot produced after a successful association.
type ConnectionInfo struct {
	IP       [4]byte
	RSSI     int8
	Security Security
	SSID     string
}

// IPString renders IP in dotted-quad form without fmt.
func (ci ConnectionInfo) IPString() string {
	var out [15]byte
	var tmp [4]byte
	n := 0
	for i, b := range ci.IP {
		if i > 0 {
			out[n] = '.'
			n++
		}
		n += copy(out[n:], conv.Utoa(tmp[:], uint64(b)))
	}
	return string(out[:n])
}

// ScanEntry is one discovered network. Index is its 0-based position in
// the co-processor's result list.
type ScanEntry struct {
	Index    uint8
	SSID     string
	RSSI     int8
	Channel  Channel
	Security Security
}

// FirmwareVersion reported by the chip.
type FirmwareVersion struct {
	Major, Minor, Patch uint8
	SVN                 uint16
}

func (v FirmwareVersion) String() string {
	var tmp [5]byte
	s := string(conv.Utoa(tmp[:], uint64(v.Major))) + "."
	s += string(conv.Utoa(tmp[:], uint64(v.Minor))) + "."
	s += string(conv.Utoa(tmp[:], uint64(v.Patch)))
	if v.SVN != 0 {
		s += " svnrev " + string(conv.Utoa(tmp[:], uint64(v.SVN)))
	}
	return s
}

// MACAddress of the chip's station interface.
type MACAddress [6]byte

func (m MACAddress) String() string {
	var out [17]byte
	n := 0
	for i, b := range m {
		if i > 0 {
			out[n] = ':'
			n++
		}
		conv.ByteHex(out[n:n+2], b)
		n += 2
	}
	return string(out[:n])
}

// GPIO names the co-processor's own auxiliary pins.
type GPIO uint8

const (
	GPIO3  GPIO = 3
	GPIO4  GPIO = 4
	GPIO5  GPIO = 5
	GPIO6  GPIO = 6
	GPIO15 GPIO = 15
	GPIO16 GPIO = 16
	GPIO18 GPIO = 18
)

func (g GPIO) Valid() bool {
	switch g {
	case GPIO3, GPIO4, GPIO5, GPIO6, GPIO15, GPIO16, GPIO18:
		return true
	}
	return false
}

type GPIODirection uint8

const (
	GPIOInput GPIODirection = iota
	GPIOOutput
)

type GPIOValue uint8

const (
	GPIOLow GPIOValue = iota
	GPIOHigh
)

// Errors shared by driver implementations. They carry session codes so
// errcode.Of classifies them without string matching.
var (
	ErrNotInitialized = &errcode.E{C: errcode.InvalidState, Msg: "winc: not initialized"}
	ErrBadSSID        = &errcode.E{C: errcode.InvalidArgument, Msg: "winc: ssid longer than 32 bytes"}
	ErrBadPassphrase  = &errcode.E{C: errcode.InvalidArgument, Msg: "winc: passphrase must be 8-63 chars or 64 hex digits"}
	ErrBadChannel     = &errcode.E{C: errcode.InvalidArgument, Msg: "winc: channel out of range"}
	ErrBadSecurity    = &errcode.E{C: errcode.InvalidArgument, Msg: "winc: unsupported security type"}
	ErrBadGPIO        = &errcode.E{C: errcode.InvalidArgument, Msg: "winc: not a co-processor gpio"}
	ErrBadIndex       = &errcode.E{C: errcode.InvalidArgument, Msg: "winc: scan index out of range"}
	ErrNoLink         = &errcode.E{C: errcode.InvalidArgument, Msg: "winc: link is missing a required line"}
)
