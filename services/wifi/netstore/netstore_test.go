package netstore

import (
	"path/filepath"
	"testing"

	"winclink-go/types"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "wifi.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveGetDelete(t *testing.T) {
	s := openTemp(t)
	if _, ok, err := s.Get("mynetwork"); ok || err != nil {
		t.Fatalf("empty store: %v %v", ok, err)
	}
	want := types.WiFiCredentials{SSID: "mynetwork", Passphrase: "mypassword", Security: "wpa_psk", Channel: 6}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := s.Get("mynetwork")
	if err != nil || !ok || got != want {
		t.Fatalf("Get = %+v %v %v", got, ok, err)
	}
	if err := s.Delete("mynetwork"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get("mynetwork"); ok {
		t.Fatal("entry survived Delete")
	}
	if err := s.Delete("never-saved"); err != nil {
		t.Fatalf("Delete unknown: %v", err)
	}
}

func TestSaveRejectsEmptySSID(t *testing.T) {
	if err := openTemp(t).Save(types.WiFiCredentials{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestListMostRecentFirst(t *testing.T) {
	s := openTemp(t)
	_ = s.Save(types.WiFiCredentials{SSID: "a", Security: "open", LastUsedMS: 10})
	_ = s.Save(types.WiFiCredentials{SSID: "b", Security: "open", LastUsedMS: 30})
	_ = s.Save(types.WiFiCredentials{SSID: "c", Security: "open", LastUsedMS: 20})
	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].SSID != "b" || list[1].SSID != "c" || list[2].SSID != "a" {
		t.Fatalf("order %+v", list)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wifi.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Save(types.WiFiCredentials{SSID: "corp", Security: "802.1x", Username: "me"})
	_ = s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if c, ok, _ := s.Get("corp"); !ok || c.Username != "me" {
		t.Fatalf("after reopen: %+v %v", c, ok)
	}
}
