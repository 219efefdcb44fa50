package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	key := Key("issues", "owner-repo", "")

	if _, ok := s.Get(key); ok {
		t.Fatal("expected miss on empty store")
	}

	payload := []byte(`[{"number": 1}]`)
	if err := s.Put(key, payload, "2"); err != nil {
		t.Fatal(err)
	}

	entry, ok := s.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if string(entry.Payload) != string(payload) {
		t.Errorf("payload changed: %s", entry.Payload)
	}
	if entry.Next != "2" {
		t.Errorf("expected next cursor 2, got %q", entry.Next)
	}
	if entry.FetchedAt.IsZero() {
		t.Error("expected fetch timestamp")
	}
}

func TestPutIdenticalIsNoop(t *testing.T) {
	s := newTestStore(t)
	key := Key("issues", "owner-repo", "2")
	payload := []byte(`[{"number": 2}]`)

	if err := s.Put(key, payload, ""); err != nil {
		t.Fatal(err)
	}
	first, _ := s.Get(key)

	if err := s.Put(key, payload, ""); err != nil {
		t.Fatal(err)
	}
	second, _ := s.Get(key)

	if !first.FetchedAt.Equal(second.FetchedAt) {
		t.Error("identical put rewrote the entry")
	}
}

func TestPutDifferentContentRefreshes(t *testing.T) {
	s := newTestStore(t)
	key := Key("issues", "owner-repo", "")

	if err := s.Put(key, []byte(`[1]`), ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(key, []byte(`[1,2]`), ""); err != nil {
		t.Fatal(err)
	}

	entry, ok := s.Get(key)
	if !ok || string(entry.Payload) != `[1,2]` {
		t.Fatalf("expected refreshed payload, got %v %s", ok, entry.Payload)
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	s := newTestStore(t)
	key := Key("timeline", "https://api.example.com/issues/1/timeline", "")

	if err := os.WriteFile(filepath.Join(s.Dir(), key+".json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Get(key); ok {
		t.Error("expected corrupt entry to read as miss")
	}
}

func TestKeyDeterministic(t *testing.T) {
	url := "https://api.example.com/repos/o/r/issues/1/timeline"

	a := Key("timeline", url, "2")
	b := Key("timeline", url, "2")
	if a != b {
		t.Errorf("key not deterministic: %q vs %q", a, b)
	}

	c := Key("timeline", url, "3")
	if a == c {
		t.Error("different cursors should produce different keys")
	}

	d := Key("timeline", "https://api.example.com/repos/o/r/issues/2/timeline", "2")
	if a == d {
		t.Error("different identifiers should produce different keys")
	}

	if Key("issues", "o-r", "") != Key("issues", "o-r", "") {
		t.Error("first-page key not deterministic")
	}
}

func TestClearAndStats(t *testing.T) {
	s := newTestStore(t)

	for i, cursor := range []string{"", "2", "3"} {
		if err := s.Put(Key("issues", "o-r", cursor), []byte(`[]`), ""); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	total, valid, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || valid != 3 {
		t.Errorf("expected 3/3, got %d/%d", total, valid)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	total, _, err = s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("expected empty store after clear, got %d", total)
	}
}

func TestInvalidate(t *testing.T) {
	s := newTestStore(t)
	key := Key("issues", "o-r", "")

	if err := s.Put(key, []byte(`[]`), ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Invalidate(key); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(key); ok {
		t.Error("expected miss after invalidate")
	}
	// Invalidating a missing key is fine.
	if err := s.Invalidate(key); err != nil {
		t.Error(err)
	}
}
