package index

import (
	"encoding/json"
	"errors"
	"strings"

	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("not found")

func (s *Store) Get(outPath string) (Entry, error) {
	outPath = strings.TrimSpace(outPath)
	if outPath == "" {
		return Entry{}, ErrNotFound
	}
	var e Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bOutputs)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(outPath))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// Entries returns the whole manifest keyed by output path. An empty store
// yields an empty map.
func (s *Store) Entries() (map[string]Entry, error) {
	out := make(map[string]Entry)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bOutputs)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out[string(k)] = e
			return nil
		})
	})
	return out, err
}

func (s *Store) LastBuild() (BuildInfo, error) {
	var info BuildInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bBuild)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get(keyLastBuild)
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &info)
	})
	return info, err
}
