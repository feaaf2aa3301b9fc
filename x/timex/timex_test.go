package timex

import (
	"testing"
	"time"
)

func TestMs(t *testing.T) {
	if Ms(250) != 250*time.Millisecond || Ms(-3) != 0 {
		t.Fatal("Ms conversion")
	}
	if NowMs() <= 0 {
		t.Fatal("NowMs")
	}
}
