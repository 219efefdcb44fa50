// Package cache persists raw fetched pages across runs so repeated analysis
// invocations do not re-fetch from the source. Entries are keyed by a
// deterministic function of the fetch request; corrupt or unreadable entries
// read as misses, never as errors.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/issuelens/issuelens/internal/log"
)

// Version is bumped when the entry format changes; entries written by another
// version read as misses.
const Version = 1

// Entry is one cached fetch response: the payload exactly as received plus
// the pagination cursor the response advertised for the following page.
type Entry struct {
	Payload   json.RawMessage `json:"payload"`
	Next      string          `json:"next,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Version   int             `json:"version"`
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Key derives the cache key for one fetchable unit: a resource kind
// ("issues", "timeline"), its identifier (repo name or timeline URL), and
// the pagination cursor ("" for the first page). Long or host-qualified
// identifiers are hashed so the key stays a safe, stable file name.
func Key(kind, id, cursor string) string {
	if cursor == "" {
		cursor = "first"
	}
	if len(id) > 64 || unsafeKeyChars.MatchString(id) {
		sum := sha256.Sum256([]byte(id))
		id = hex.EncodeToString(sum[:8])
	}
	return fmt.Sprintf("%s_%s_%s", kind, id, unsafeKeyChars.ReplaceAllString(cursor, "-"))
}

// Store is a durable page cache rooted at a single directory. All methods
// are safe for concurrent use; concurrent writers for the same key are
// last-writer-wins, which is acceptable because page content for a given key
// is stable.
type Store struct {
	dir string
}

// NewStore creates a store under the user cache directory.
func NewStore() (*Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDir(filepath.Join(cacheDir, "issuelens", "pages"))
}

// NewStoreWithDir creates a store rooted at dir, creating it if needed.
func NewStoreWithDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get returns the entry for key, or false on a miss. Unreadable files,
// invalid JSON, and version mismatches are all misses.
func (s *Store) Get(key string) (*Entry, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Debug("discarding corrupt cache entry", "key", key, "error", err)
		return nil, false
	}
	if entry.Version != Version {
		log.Debug("cache version mismatch", "key", key, "cached", entry.Version, "current", Version)
		return nil, false
	}

	return &entry, true
}

// Put stores an entry under key. Writing identical content over an existing
// entry is a no-op, so concurrent workers that fetched the same page do not
// churn the file. Differing content overwrites (a refresh).
func (s *Store) Put(key string, payload []byte, next string) error {
	if existing, ok := s.Get(key); ok {
		if bytes.Equal(existing.Payload, payload) && existing.Next == next {
			return nil
		}
	}

	entry := Entry{
		Payload:   payload,
		Next:      next,
		FetchedAt: time.Now(),
		Version:   Version,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.writeAtomic(key, data)
}

// writeAtomic writes via a temp file and rename so readers never observe a
// partially written entry.
func (s *Store) writeAtomic(key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.path(key))
}

// Invalidate removes the entry for key, if any.
func (s *Store) Invalidate(key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes all cached entries.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the number of entries on disk and how many of them are
// readable at the current version.
func (s *Store) Stats() (total, valid int, err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0, err
	}

	for _, dirEntry := range entries {
		if filepath.Ext(dirEntry.Name()) != ".json" {
			continue
		}
		total++

		data, err := os.ReadFile(filepath.Join(s.dir, dirEntry.Name()))
		if err != nil {
			continue
		}
		var e Entry
		if json.Unmarshal(data, &e) == nil && e.Version == Version {
			valid++
		}
	}

	return total, valid, nil
}
