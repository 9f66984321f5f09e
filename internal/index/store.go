// Package index keeps the build manifest: what every output file was last
// written with, so an unchanged output is not written again.
package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store is one open manifest. A build holds it for the whole run, so two
// builds against the same manifest serialize on the file lock.
type Store struct {
	db       *bolt.DB
	readOnly bool
}

type OpenOptions struct {
	Path string // e.g. ".reshub/manifest.db"
	// ReadOnly opens an existing manifest for inspection. It shares the
	// file with other readers and never creates it.
	ReadOnly bool
	// LockTimeout bounds the wait for another build's lock. Zero means 1s.
	LockTimeout time.Duration
}

func Open(opt OpenOptions) (*Store, error) {
	if opt.Path == "" {
		return nil, errors.New("index: missing path")
	}
	timeout := opt.LockTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	if !opt.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(opt.Path), 0o755); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(opt.Path); err != nil {
		return nil, fmt.Errorf("index %s: %w", opt.Path, err)
	}

	db, err := bolt.Open(opt.Path, 0o600, &bolt.Options{
		Timeout:  timeout,
		ReadOnly: opt.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", opt.Path, err)
	}
	s := &Store{db: db, readOnly: opt.ReadOnly}
	if !opt.ReadOnly {
		if err := s.ensureBuckets(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bOutputs, bBuild} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Path() string { return s.db.Path() }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
