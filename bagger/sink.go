package bagger

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// A sink accepts the files of a bag being written, strictly one at a
// time: the writer returned by create is valid until the next create or
// close call. That discipline is what a tar archive requires, and the
// directory sink simply follows it.
type sink interface {
	// create starts a new file at the bag-root-relative path. size must
	// be the exact number of bytes that will be written.
	create(relPath string, size int64, mode os.FileMode, modTime time.Time) (io.Writer, error)
	close() error
}

// dirSink writes the bag as a directory tree rooted at root.
type dirSink struct {
	root string

	// the file being written, so it can be finished on the next create
	cur     *os.File
	curMode os.FileMode
	curTime time.Time
}

func newDirSink(root string) (*dirSink, error) {
	if err := os.MkdirAll(root, 0775); err != nil {
		return nil, errors.Wrapf(err, "creating bag directory %s", root)
	}
	return &dirSink{root: root}, nil
}

func (d *dirSink) create(relPath string, size int64, mode os.FileMode, modTime time.Time) (io.Writer, error) {
	if err := d.finish(); err != nil {
		return nil, err
	}
	abs := filepath.Join(d.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0775); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %s", relPath)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", relPath)
	}
	d.cur, d.curMode, d.curTime = f, mode, modTime
	return f, nil
}

// finish closes the in-progress file and stamps its mode and mtime.
func (d *dirSink) finish() error {
	if d.cur == nil {
		return nil
	}
	name := d.cur.Name()
	err := d.cur.Close()
	d.cur = nil
	if err != nil {
		return err
	}
	if d.curMode != 0 {
		if err := os.Chmod(name, d.curMode); err != nil {
			return err
		}
	}
	if !d.curTime.IsZero() {
		if err := os.Chtimes(name, d.curTime, d.curTime); err != nil {
			return err
		}
	}
	return nil
}

func (d *dirSink) close() error {
	return d.finish()
}

// tarSink writes the bag as a single tar archive whose entries all sit
// under the bag's directory name.
type tarSink struct {
	f       *os.File
	tw      *tar.Writer
	bagName string
}

func newTarSink(path, bagName string) (*tarSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	tw := tar.NewWriter(f)
	// the directory entry everything unpacks under
	err = tw.WriteHeader(&tar.Header{
		Name:     bagName + "/",
		Typeflag: tar.TypeDir,
		Mode:     0755,
		ModTime:  time.Now(),
	})
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "writing %s", path)
	}
	return &tarSink{f: f, tw: tw, bagName: bagName}, nil
}

func (t *tarSink) create(relPath string, size int64, mode os.FileMode, modTime time.Time) (io.Writer, error) {
	if mode == 0 {
		mode = 0644
	}
	if modTime.IsZero() {
		modTime = time.Now()
	}
	err := t.tw.WriteHeader(&tar.Header{
		Name:     t.bagName + "/" + relPath,
		Typeflag: tar.TypeReg,
		Size:     size,
		Mode:     int64(mode.Perm()),
		ModTime:  modTime,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "writing tar header for %s", relPath)
	}
	return t.tw, nil
}

// close finalizes the archive, padding out the final block.
func (t *tarSink) close() error {
	err := t.tw.Close()
	cerr := t.f.Close()
	if err == nil {
		err = cerr
	}
	return err
}
