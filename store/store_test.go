package store

import (
	"io"
	"sort"
	"testing"
)

func runStoreTest(t *testing.T, s Store) {
	t.Helper()
	w, err := s.Create("alpha")
	if err != nil {
		t.Fatalf("Create() error %s", err.Error())
	}
	w.Write([]byte("hello"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error %s", err.Error())
	}

	if _, err := s.Create("alpha"); err != ErrKeyExists {
		t.Errorf("duplicate Create() = %v, expected ErrKeyExists", err)
	}

	r, size, err := s.Open("alpha")
	if err != nil {
		t.Fatalf("Open() error %s", err.Error())
	}
	if size != 5 {
		t.Errorf("size = %d, expected 5", size)
	}
	b, _ := io.ReadAll(r)
	r.Close()
	if string(b) != "hello" {
		t.Errorf("content = %q, expected hello", string(b))
	}

	w, _ = s.Create("beta")
	w.Close()
	keys, err := s.List()
	if err != nil {
		t.Fatalf("List() error %s", err.Error())
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != "beta" {
		t.Errorf("List() = %v", keys)
	}

	if err := s.Delete("alpha"); err != nil {
		t.Fatalf("Delete() error %s", err.Error())
	}
	if err := s.Delete("alpha"); err != nil {
		t.Errorf("second Delete() = %v, expected nil", err)
	}
	if _, _, err := s.Open("alpha"); err == nil {
		t.Errorf("Open() of deleted key succeeded")
	}
}

func TestMemory(t *testing.T) {
	runStoreTest(t, NewMemory())
}

func TestFileSystem(t *testing.T) {
	runStoreTest(t, NewFileSystem(t.TempDir()))
}

func TestFileSystemBadKeys(t *testing.T) {
	s := NewFileSystem(t.TempDir())
	for _, key := range []string{"", "a/b", "a b", "a\tb", "a\x00b"} {
		if _, err := s.Create(key); err != ErrBadKey {
			t.Errorf("Create(%q) = %v, expected ErrBadKey", key, err)
		}
	}
}
