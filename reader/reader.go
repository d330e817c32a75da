// Package reader provides uniform iteration over the container shapes a
// bag can arrive in. A Reader walks one container, first listing entries
// and then streaming their bytes. Concrete readers exist for plain
// directories, tar archives, and gzipped tar archives; more can be hooked
// in through Register.
package reader

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/sulibs/bagit/events"
)

// An Entry describes one item inside a container.
type Entry struct {
	// RelPath is forward-slashed. Directory readers return it relative
	// to the bag root; archive readers return it verbatim, including
	// the leading bag directory, and the caller strips that.
	RelPath string
	IsDir   bool
	Size    int64
}

// A Reader iterates the entries of one bag container. List and Read may
// each be called once; Read streams are forward-only and valid only until
// the callback returns. A non-nil error from the callback stops the
// iteration and is returned.
type Reader interface {
	// List emits every entry without opening any streams.
	List(fn func(Entry) error) error
	// Read emits every regular file together with its byte stream.
	Read(fn func(Entry, io.Reader) error) error
	Close() error
}

// A Factory opens a Reader over the container at path.
type Factory func(path string, conf events.Config) (Reader, error)

// DirectorySentinel is the registry key for unserialized bags.
const DirectorySentinel = "directory"

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		DirectorySentinel: newDirectory,
		".tar":            newTar,
		".tgz":            newTarGz,
		".tar.gz":         newTarGz,
	}
)

// Register adds a reader factory for the given file extension (with
// leading dot), or for DirectorySentinel. Later registrations replace
// earlier ones.
func Register(ext string, f Factory) {
	registryMu.Lock()
	registry[strings.ToLower(ext)] = f
	registryMu.Unlock()
}

// Open stats path and picks the matching reader: the directory reader for
// directories, otherwise the registered factory with the longest matching
// extension.
func Open(path string, conf events.Config) (Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening bag %s", path)
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	if info.IsDir() {
		return registry[DirectorySentinel](path, conf)
	}
	name := strings.ToLower(path)
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		if ext != DirectorySentinel {
			exts = append(exts, ext)
		}
	}
	// longest extension first so .tar.gz wins over .gz
	sort.Slice(exts, func(i, j int) bool { return len(exts[i]) > len(exts[j]) })
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return registry[ext](path, conf)
		}
	}
	return nil, errors.Errorf("no reader for bag format of %s", path)
}
