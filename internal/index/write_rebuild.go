package index

import (
	"encoding/json"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Entry records one output file of a build.
type Entry struct {
	OutPath   string    `json:"out"`
	Kind      string    `json:"kind"`
	Slug      string    `json:"slug,omitempty"`
	Hash      string    `json:"hash"`
	Size      int       `json:"size"`
	WrittenAt time.Time `json:"written_at"`
}

type BuildInfo struct {
	At        time.Time `json:"at"`
	Items     int       `json:"items"`
	Written   int       `json:"written"`
	Unchanged int       `json:"unchanged"`
	Removed   int       `json:"removed"`
}

// Commit replaces the manifest with entries, in one transaction.
func (s *Store) Commit(entries []Entry, info BuildInfo) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_ = tx.DeleteBucket(bOutputs)

		outB, err := tx.CreateBucket(bOutputs)
		if err != nil {
			return err
		}
		buildB, err := tx.CreateBucketIfNotExists(bBuild)
		if err != nil {
			return err
		}

		for _, e := range entries {
			if strings.TrimSpace(e.OutPath) == "" {
				continue
			}
			eb, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := outB.Put([]byte(e.OutPath), eb); err != nil {
				return err
			}
		}

		ib, err := json.Marshal(info)
		if err != nil {
			return err
		}
		return buildB.Put(keyLastBuild, ib)
	})
}
