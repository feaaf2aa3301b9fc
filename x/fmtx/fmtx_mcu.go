//go:build rp2040 || rp2350

package fmtx

import (
	"io"
	"unicode/utf8"

	"winclink-go/x/strconvx"
)

// Sprintf supports %s %q %d %x %v %t and %%, with an optional '-' flag,
// width, and precision for strings. Console output only needs that much.
func Sprintf(format string, a ...any) string {
	var b builder
	b.format(format, a...)
	return string(b.buf)
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	return w.Write([]byte(Sprintf(format, a...)))
}

type builder struct{ buf []byte }

func (b *builder) str(s string) { b.buf = append(b.buf, s...) }

func (b *builder) pad(s string, width int, left bool) {
	n := width - utf8.RuneCountInString(s)
	if left {
		b.str(s)
	}
	for ; n > 0; n-- {
		b.buf = append(b.buf, ' ')
	}
	if !left {
		b.str(s)
	}
}

func (b *builder) format(format string, args ...any) {
	ai := 0
	for i := 0; i < len(format); {
		c := format[i]
		if c != '%' {
			b.buf = append(b.buf, c)
			i++
			continue
		}
		i++
		if i < len(format) && format[i] == '%' {
			b.buf = append(b.buf, '%')
			i++
			continue
		}
		left := false
		if i < len(format) && format[i] == '-' {
			left = true
			i++
		}
		width, prec := 0, -1
		i = parseNum(format, i, &width)
		if i < len(format) && format[i] == '.' {
			prec = 0
			i = parseNum(format, i+1, &prec)
		}
		if i >= len(format) || ai >= len(args) {
			return
		}
		verb, arg := format[i], args[ai]
		i++
		ai++

		var s string
		switch verb {
		case 's', 'v':
			s = text(arg)
			if prec >= 0 && prec < len(s) {
				s = s[:prec]
			}
		case 'q':
			s = quote(text(arg))
		case 'd':
			s = strconvx.FormatInt(toI64(arg), 10)
		case 'x':
			s = strconvx.FormatUint(uint64(toI64(arg)), 16)
		case 't':
			s = "false"
			if v, _ := arg.(bool); v {
				s = "true"
			}
		default:
			s = "%" + string(rune(verb))
		}
		b.pad(s, width, left)
	}
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case error:
		return x.Error()
	case interface{ String() string }:
		return x.String()
	}
	if n, ok := integer(v); ok {
		return strconvx.FormatInt(n, 10)
	}
	return "?"
}

func integer(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	}
	return 0, false
}

func toI64(v any) int64 {
	n, _ := integer(v)
	return n
}

func parseNum(s string, i int, out *int) int {
	n, start := 0, i
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i > start {
		*out = n
	}
	return i
}

func quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			out = append(out, '\\', c)
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			out = append(out, c)
		}
	}
	return string(append(out, '"'))
}
