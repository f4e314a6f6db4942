// Package snapshot caches built automatons in a bbolt file, keyed by the
// digest of the word list they were built from. A list whose contents change
// gets a new key, so stale entries are never served.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/japaniel/wordcoverage/pkg/automaton"
	"github.com/japaniel/wordcoverage/pkg/wordlist"
	bolt "go.etcd.io/bbolt"
)

var bucketAutomata = []byte("automata")

// ErrCorrupt reports a cached snapshot that could not be decoded.
var ErrCorrupt = errors.New("snapshot: corrupt entry")

// Store is a bbolt-backed automaton cache.
type Store struct {
	db     *bolt.DB
	Logger *slog.Logger
}

// Open opens (or creates) the cache file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAutomata)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key identifies a list's automaton for a given build mode.
func Key(list *wordlist.List, caseFold bool) []byte {
	mode := "cs"
	if caseFold {
		mode = "ci"
	}
	return []byte(list.Name + ":" + mode + ":" + list.Digest())
}

// Load returns the cached automaton for key, or nil, nil when absent.
func (s *Store) Load(key []byte) (*automaton.Automaton, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketAutomata).Get(key); v != nil {
			// bbolt values are only valid inside the transaction.
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}
	a := new(automaton.Automaton)
	if err := a.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return a, nil
}

// Save stores a under key, replacing any previous entry.
func (s *Store) Save(key []byte, a *automaton.Automaton) error {
	data, err := a.MarshalBinary()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAutomata).Put(key, data)
	})
}

// GetOrBuild returns the cached automaton for list, building and caching it
// on a miss. A corrupt entry is rebuilt and overwritten. The second result
// reports a cache hit.
func (s *Store) GetOrBuild(list *wordlist.List, caseFold bool) (*automaton.Automaton, bool, error) {
	key := Key(list, caseFold)
	a, err := s.Load(key)
	switch {
	case err == nil && a != nil:
		return a, true, nil
	case err != nil && !errors.Is(err, ErrCorrupt):
		return nil, false, err
	case err != nil && s.Logger != nil:
		s.Logger.Warn("rebuilding corrupt snapshot", "key", string(key), "error", err)
	}

	a = Build(list, caseFold)
	if err := s.Save(key, a); err != nil {
		return nil, false, fmt.Errorf("save snapshot: %w", err)
	}
	return a, false, nil
}

// Prune deletes every entry whose key is not in keep.
func (s *Store) Prune(keep ...[]byte) (int, error) {
	wanted := make(map[string]bool, len(keep))
	for _, k := range keep {
		wanted[string(k)] = true
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAutomata)
		var stale [][]byte
		err := b.ForEach(func(k, _ []byte) error {
			if !wanted[string(k)] {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Build builds the automaton for list without touching any cache.
func Build(list *wordlist.List, caseFold bool) *automaton.Automaton {
	var opts []automaton.Option
	if caseFold {
		opts = append(opts, automaton.WithCaseFold())
	}
	return automaton.Build(list.Words, opts...)
}
