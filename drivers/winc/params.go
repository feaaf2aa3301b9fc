package winc

import "winclink-go/x/conv"

// Length limits for connection credentials.
const (
	MaxSSIDLen       = 32
	MinPassphraseLen = 8
	MaxPassphraseLen = 63
	PSKHexLen        = 64
	MaxCredentialLen = 64
)

// ConnectionParameters is consumed by Driver.ConnectNetwork and not
// retained by the session. Byte slices are treated as opaque.
type ConnectionParameters struct {
	SSID       []byte
	Security   Security
	Passphrase []byte // WPA-PSK passphrase or 64 hex-digit PSK

	// 802.1X credentials.
	Username []byte
	Password []byte

	Channel Channel
	// Index selects the credential set slot on the chip.
	Index uint8
}

// WPAPSK builds parameters for a WPA-PSK network.
func WPAPSK(ssid, passphrase []byte, ch Channel, index uint8) ConnectionParameters {
	return ConnectionParameters{SSID: ssid, Security: SecurityWPAPSK, Passphrase: passphrase, Channel: ch, Index: index}
}

// OpenNetwork builds parameters for an unsecured network.
func OpenNetwork(ssid []byte, ch Channel, index uint8) ConnectionParameters {
	return ConnectionParameters{SSID: ssid, Security: SecurityOpen, Channel: ch, Index: index}
}

// Enterprise builds parameters for an 802.1X network.
func Enterprise(ssid, username, password []byte, ch Channel, index uint8) ConnectionParameters {
	return ConnectionParameters{SSID: ssid, Security: SecurityEnterprise, Username: username, Password: password, Channel: ch, Index: index}
}

// Validate checks lengths and selectors before anything reaches the chip.
func (p ConnectionParameters) Validate() error {
	if len(p.SSID) > MaxSSIDLen {
		return ErrBadSSID
	}
	if !p.Channel.Valid() {
		return ErrBadChannel
	}
	switch p.Security {
	case SecurityOpen:
	case SecurityWPAPSK:
		n := len(p.Passphrase)
		switch {
		case n == PSKHexLen:
			if !conv.IsHex(p.Passphrase) {
				return ErrBadPassphrase
			}
		case n < MinPassphraseLen || n > MaxPassphraseLen:
			return ErrBadPassphrase
		}
	case SecurityEnterprise:
		if len(p.Username) == 0 || len(p.Username) > MaxCredentialLen || len(p.Password) > MaxCredentialLen {
			return ErrBadPassphrase
		}
	default:
		return ErrBadSecurity
	}
	return nil
}
