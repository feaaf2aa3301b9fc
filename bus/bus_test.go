package bus

import (
	"context"
	"sort"
	"testing"
	"time"
)

func recv(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case m := <-sub.Channel():
		if s, _ := m.Payload.(string); s != want {
			t.Fatalf("payload %#v, want %q", m.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func quiet(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case m := <-sub.Channel():
		t.Fatalf("unexpected message on %v: %#v", sub.Topic(), m)
	case <-time.After(50 * time.Millisecond):
	}
}

func collect(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	timeout := time.After(300 * time.Millisecond)
	for len(out) < n {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("non-string payload %#v", m.Payload)
			}
			out = append(out, s)
		case <-timeout:
			t.Fatalf("got %d of %d messages: %v", len(out), n, out)
		}
	}
	sort.Strings(out)
	return out
}

func sameStrings(t *testing.T, got []string, want ...string) {
	t.Helper()
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPublishSubscribe(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("t")
	sub := c.Subscribe(T("wifi", "state"))
	c.Publish(c.NewMessage(T("wifi", "state"), "idle", false))
	recv(t, sub, "idle")
}

func TestRetainedReplayedToLateSubscriber(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("t")
	c.Publish(c.NewMessage(T("config", "wifi"), "cfg", true))
	recv(t, c.Subscribe(T("config", "wifi")), "cfg")
}

func TestSingleLevelWildcard(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("t")
	anyVerb := c.Subscribe(Topic{"wifi", "control", "+"})
	anyTwo := c.Subscribe(Topic{"wifi", "+", "+"})
	other := c.Subscribe(Topic{"wifi", "+", "scan"})

	c.Publish(b.NewMessage(Topic{"wifi", "control", "connect"}, "c1", false))
	recv(t, anyVerb, "c1")
	recv(t, anyTwo, "c1")
	quiet(t, other)

	c.Publish(b.NewMessage(Topic{"wifi", "state"}, "s", false))
	quiet(t, anyVerb)
	quiet(t, anyTwo)
}

func TestMultiLevelWildcard(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("t")
	all := c.Subscribe(Topic{"#"})
	wifi := c.Subscribe(Topic{"wifi", "#"})
	ctl := c.Subscribe(Topic{"wifi", "control", "#"})

	c.Publish(b.NewMessage(Topic{"wifi"}, "w", false))
	recv(t, all, "w")
	recv(t, wifi, "w")
	quiet(t, ctl)

	c.Publish(b.NewMessage(Topic{"wifi", "control", "scan"}, "s", false))
	recv(t, all, "s")
	recv(t, wifi, "s")
	recv(t, ctl, "s")
}

func TestRetainedWithWildcards(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("t")
	c.Publish(b.NewMessage(Topic{"wifi"}, "root", true))
	c.Publish(b.NewMessage(Topic{"wifi", "state"}, "state", true))
	c.Publish(b.NewMessage(Topic{"wifi", "scan"}, "scan", true))
	c.Publish(b.NewMessage(Topic{"wifi", "stats", "pumps"}, "pumps", true))

	sameStrings(t, collect(t, c.Subscribe(Topic{"wifi", "#"}), 4), "root", "state", "scan", "pumps")
	sameStrings(t, collect(t, c.Subscribe(Topic{"wifi", "+"}), 2), "state", "scan")
	sameStrings(t, collect(t, c.Subscribe(Topic{"wifi", "+", "#"}), 3), "state", "scan", "pumps")
}

func TestRetainedNilClears(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("t")
	c.Publish(b.NewMessage(Topic{"wifi", "scan"}, "old", true))
	c.Publish(b.NewMessage(Topic{"wifi", "state"}, "up", true))
	c.Publish(b.NewMessage(Topic{"wifi", "scan"}, nil, true))
	sameStrings(t, collect(t, c.Subscribe(Topic{"wifi", "#"}), 1), "up")
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("t")
	sub := c.Subscribe(T("wifi", "stats"))
	for _, p := range []string{"1", "2", "3"} {
		c.Publish(b.NewMessage(T("wifi", "stats"), p, false))
	}
	recv(t, sub, "2")
	recv(t, sub, "3")
}

func TestUnsubscribeClosesAndStopsDelivery(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("t")
	sub := c.Subscribe(T("wifi", "state"))
	c.Unsubscribe(sub)
	c.Unsubscribe(sub)
	if _, ok := <-sub.Channel(); ok {
		t.Fatal("channel should be closed")
	}
	c.Publish(b.NewMessage(T("wifi", "state"), "x", false))

	s2 := c.Subscribe(T("wifi", "scan"))
	c.Disconnect()
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("Disconnect should close subscriptions")
	}
}

func TestRequestWait(t *testing.T) {
	b := NewBus(4)
	cli := b.NewConnection("console")
	svc := b.NewConnection("wifi")
	reqs := svc.Subscribe(T("wifi", "control", "status"))
	go func() {
		if m, ok := <-reqs.Channel(); ok {
			svc.Reply(m, "connected", false)
		}
	}()

	req := b.NewMessage(T("wifi", "control", "status"), nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rep, err := cli.RequestWait(ctx, req)
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if rep.Payload != "connected" {
		t.Fatalf("reply %#v", rep.Payload)
	}
	if len(req.ReplyTo) == 0 || len(rep.Topic) != len(req.ReplyTo) {
		t.Fatalf("reply topic %v, ReplyTo %v", rep.Topic, req.ReplyTo)
	}
	for i := range rep.Topic {
		if rep.Topic[i] != req.ReplyTo[i] {
			t.Fatalf("reply topic %v, ReplyTo %v", rep.Topic, req.ReplyTo)
		}
	}
}

func TestRequestWaitTimesOut(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("console")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := c.RequestWait(ctx, b.NewMessage(T("wifi", "control", "nobody"), nil, false)); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestReplyWithoutReplyToIsIgnored(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("t")
	all := c.Subscribe(Topic{"#"})
	c.Reply(b.NewMessage(T("x"), nil, false), "nope", false)
	quiet(t, all)
}

func TestTokenValidation(t *testing.T) {
	if got := T("wifi", 3).Append("x"); len(got) != 3 {
		t.Fatalf("Append: %v", got)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("non-comparable token should panic")
		}
	}()
	_ = T([]byte("ssid"))
}
