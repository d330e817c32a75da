package reader

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sulibs/bagit/events"
)

// directoryReader walks a filesystem directory. Paths come back
// forward-slashed and relative to the bag root. Symlinks and other
// non-regular entries are skipped with an informational log; a bag should
// not fail to validate because a stray socket is sitting in it.
type directoryReader struct {
	root string
	conf events.Config
}

func newDirectory(path string, conf events.Config) (Reader, error) {
	return &directoryReader{root: path, conf: conf}, nil
}

func (d *directoryReader) walk(fn func(relPath string, info os.FileInfo, abs string) error) error {
	return filepath.Walk(d.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == d.root {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !info.IsDir() && !info.Mode().IsRegular() {
			d.conf.Info("skipping non-regular file %s", rel)
			return nil
		}
		return fn(rel, info, p)
	})
}

func (d *directoryReader) List(fn func(Entry) error) error {
	return d.walk(func(rel string, info os.FileInfo, _ string) error {
		return fn(Entry{RelPath: rel, IsDir: info.IsDir(), Size: info.Size()})
	})
}

func (d *directoryReader) Read(fn func(Entry, io.Reader) error) error {
	return d.walk(func(rel string, info os.FileInfo, abs string) error {
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(abs)
		if err != nil {
			return errors.Wrapf(err, "opening %s", rel)
		}
		err = fn(Entry{RelPath: rel, Size: info.Size()}, f)
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
		return err
	})
}

func (d *directoryReader) Close() error { return nil }
