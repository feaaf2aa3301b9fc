package conv

const hexDigits = "0123456789abcdef"

// ByteHex writes b as two lowercase hex digits into buf[0:2].
// buf shorter than 2 is left untouched.
func ByteHex(buf []byte, b byte) {
	if len(buf) < 2 {
		return
	}
	buf[0] = hexDigits[b>>4]
	buf[1] = hexDigits[b&0x0F]
}

// IsHex reports whether s is non-empty and made only of hex digits.
func IsHex(s []byte) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
