// Package netstore keeps saved Wi-Fi credential sets in a bbolt file, one
// JSON document per SSID.
package netstore

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/go-errors/errors"
	"go.etcd.io/bbolt"

	"winclink-go/types"
)

var networksBucket = []byte("networks")

type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Errorf("netstore: open %s: %v", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(networksBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, 0)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save stores c under its SSID, replacing any previous entry.
func (s *Store) Save(c types.WiFiCredentials) error {
	if c.SSID == "" {
		return errors.New("netstore: empty ssid")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(networksBucket).Put([]byte(c.SSID), payload)
	})
}

// Get returns the saved entry for ssid.
func (s *Store) Get(ssid string) (types.WiFiCredentials, bool, error) {
	var c types.WiFiCredentials
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(networksBucket).Get([]byte(ssid))
		if raw == nil || bytes.Equal(raw, []byte("null")) {
			return nil
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			return errors.Errorf("netstore: could not unmarshal %q: %v", ssid, err)
		}
		found = true
		return nil
	})
	return c, found, err
}

// List returns every saved network, most recently used first.
func (s *Store) List() ([]types.WiFiCredentials, error) {
	var out []types.WiFiCredentials
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(networksBucket).ForEach(func(k, v []byte) error {
			var c types.WiFiCredentials
			if err := json.Unmarshal(v, &c); err != nil {
				return errors.Errorf("netstore: could not unmarshal %q: %v", k, err)
			}
			out = append(out, c)
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastUsedMS > out[j].LastUsedMS })
	return out, err
}

// Delete forgets ssid. Deleting an unknown SSID is not an error.
func (s *Store) Delete(ssid string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(networksBucket).Delete([]byte(ssid))
	})
}
