package store

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	raven "github.com/getsentry/raven-go"
)

// FileSystem implements the store over a single filesystem directory, one
// file per key. New values are staged in a scratch subdirectory and
// renamed into place on Close, so readers never see a half-written value.
type FileSystem struct {
	root string
}

const (
	// the subdir to hold files while they are being written to.
	scratchdir = "scratch"
)

var (
	_ Store = &FileSystem{}

	// ErrKeyExists indicates an attempt to create a key which already exists.
	ErrKeyExists = errors.New("key already exists")

	// ErrBadKey means the key contains a slash, whitespace, a control
	// character, or invalid UTF-8.
	ErrBadKey = errors.New("malformed key")
)

// NewFileSystem creates a FileSystem store based at the given root path.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root: root}
}

// List returns the keys in this store.
func (s *FileSystem) List() ([]string, error) {
	f, err := os.Open(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		log.Println(err)
		raven.CaptureError(err, nil)
		return nil, err
	}
	defer f.Close()
	entries, err := f.Readdir(-1)
	if err != nil {
		log.Println(err)
		raven.CaptureError(err, nil)
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.Mode().IsRegular() {
			keys = append(keys, e.Name())
		}
	}
	return keys, nil
}

// Open returns a reader for the given key along with the value's size.
func (s *FileSystem) Open(key string) (io.ReadCloser, int64, error) {
	if err := isKeyValid(key); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(s.root, key))
	if err != nil {
		return nil, 0, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, fi.Size(), nil
}

// Create makes a new entry with the given key and returns a writer for
// its value.
func (s *FileSystem) Create(key string) (io.WriteCloser, error) {
	if err := isKeyValid(key); err != nil {
		return nil, err
	}
	target := filepath.Join(s.root, key)
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		return nil, ErrKeyExists
	}
	scratch := filepath.Join(s.root, scratchdir)
	if err := os.MkdirAll(scratch, 0775); err != nil {
		return nil, err
	}
	temp := filepath.Join(scratch, key)
	// O_EXCL so two writers on the same key don't interleave
	w, err := os.OpenFile(temp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return nil, err
	}
	return &moveCloser{WriteCloser: w, source: temp, target: target}, nil
}

// moveCloser moves the scratch file into its final place on Close.
type moveCloser struct {
	io.WriteCloser
	source string
	target string
}

func (w *moveCloser) Close() error {
	err := w.WriteCloser.Close()
	if err != nil {
		return err
	}
	if _, err = os.Stat(w.target); !os.IsNotExist(err) {
		return ErrKeyExists
	}
	return os.Rename(w.source, w.target)
}

// Delete the given key from the store. It is not an error if the key
// doesn't exist.
func (s *FileSystem) Delete(key string) error {
	if err := isKeyValid(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, key))
	if err != nil && os.IsNotExist(err) {
		err = nil
	}
	return err
}

func isKeyValid(key string) error {
	if key == "" || !utf8.ValidString(key) || strings.Contains(key, "/") {
		return ErrBadKey
	}
	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrBadKey
		}
	}
	return nil
}
