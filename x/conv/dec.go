// Package conv has allocation-free number formatting for MCU builds where
// strconv/fmt are too heavy.
package conv

// Utoa writes n in base 10 at the end of buf and returns the written tail.
// A buf of 20 bytes fits any uint64; shorter bufs keep the low digits.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if i == 0 {
		return buf
	}
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 || i == 0 {
			break
		}
	}
	return buf[i:]
}

// Itoa is Utoa with a leading '-' for negative n.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	if len(buf) < 2 {
		return buf[:0]
	}
	d := Utoa(buf[1:], uint64(-n))
	start := len(buf) - len(d) - 1
	buf[start] = '-'
	return buf[start:]
}

// ParseUint parses a base-10 unsigned number. ok is false on empty input,
// a non-digit, or overflow.
func ParseUint(s string) (n uint64, ok bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if n > (^uint64(0)-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}
