//go:build rp2040 || rp2350

package strconvx

import "winclink-go/x/conv"

type syntaxError struct{ s string }

func (e *syntaxError) Error() string { return "strconvx: invalid integer " + e.s }

func Itoa(i int) string { return FormatInt(int64(i), 10) }

// Atoi accepts an optional sign followed by decimal digits.
func Atoi(s string) (int, error) {
	neg := false
	digits := s
	if len(digits) > 0 && (digits[0] == '+' || digits[0] == '-') {
		neg = digits[0] == '-'
		digits = digits[1:]
	}
	u, ok := conv.ParseUint(digits)
	if !ok || u > 1<<31-1 {
		return 0, &syntaxError{s}
	}
	if neg {
		return -int(u), nil
	}
	return int(u), nil
}

func FormatInt(i int64, base int) string {
	if i < 0 {
		return "-" + FormatUint(uint64(-i), base)
	}
	return FormatUint(uint64(i), base)
}

// FormatUint supports bases 2 to 36; others fall back to 10.
func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for {
		i--
		buf[i] = digits[u%b]
		u /= b
		if u == 0 {
			break
		}
	}
	return string(buf[i:])
}
