package build

import (
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	domainbuild "reshub/internal/domain/build"
	"reshub/internal/domain/site"
	"reshub/internal/index"
)

// outputs writes build results through the manifest of the previous build.
// It is safe for concurrent use.
type outputs struct {
	root       string
	configHash string
	now        time.Time
	prev       map[string]index.Entry

	mu        sync.Mutex
	entries   map[string]index.Entry
	written   int
	unchanged int
}

func newOutputs(root string, prev map[string]index.Entry, configHash string, now time.Time) *outputs {
	return &outputs{
		root:       root,
		configHash: configHash,
		now:        now,
		prev:       prev,
		entries:    make(map[string]index.Entry),
	}
}

// put writes data for r unless the previous build wrote the same bytes and
// the file is still there.
func (o *outputs) put(r site.Route, data []byte) error {
	fp := domainbuild.NewFingerprint(data, o.configHash)
	e := index.Entry{
		OutPath:   r.OutPath,
		Kind:      string(r.Kind),
		Slug:      r.Slug,
		Hash:      fp.RenderHash,
		Size:      len(data),
		WrittenAt: o.now,
	}

	old, seen := o.prev[r.OutPath]
	if seen && old.Hash == e.Hash && o.exists(r.OutPath) {
		e.WrittenAt = old.WrittenAt
		o.record(e, false)
		return nil
	}
	if err := writeFile(o.root, r.OutPath, data); err != nil {
		return err
	}
	o.record(e, true)
	return nil
}

func (o *outputs) record(e index.Entry, wrote bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries[e.OutPath] = e
	if wrote {
		o.written++
	} else {
		o.unchanged++
	}
}

func (o *outputs) exists(rel string) bool {
	full, err := underRoot(o.root, rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// prune deletes files the previous build wrote that this build did not.
func (o *outputs) prune() (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for p := range o.prev {
		if _, ok := o.entries[p]; ok {
			continue
		}
		// A manifest entry outside the public directory is dropped, never
		// followed.
		full, err := underRoot(o.root, p)
		if err != nil {
			continue
		}
		err = os.Remove(full)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return n, err
		}
		n++
	}
	return n, nil
}

func (o *outputs) list() []index.Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]index.Entry, 0, len(o.entries))
	for _, e := range o.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OutPath < out[j].OutPath })
	return out
}
