package strconvx

import "testing"

func TestAtoi(t *testing.T) {
	for _, c := range []struct {
		in   string
		want int
		ok   bool
	}{
		{"6", 6, true},
		{"255", 255, true},
		{"-42", -42, true},
		{"+7", 7, true},
		{"", 0, false},
		{"6x", 0, false},
		{"ch6", 0, false},
	} {
		got, err := Atoi(c.in)
		if (err == nil) != c.ok || got != c.want {
			t.Fatalf("Atoi(%q) = %d, %v", c.in, got, err)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Itoa(-67); got != "-67" {
		t.Fatalf("Itoa = %q", got)
	}
	if got := FormatUint(0, 10); got != "0" {
		t.Fatalf("FormatUint(0) = %q", got)
	}
	if got := FormatUint(0xf8f0, 16); got != "f8f0" {
		t.Fatalf("FormatUint hex = %q", got)
	}
	if got := FormatInt(-255, 16); got != "-ff" {
		t.Fatalf("FormatInt = %q", got)
	}
}
