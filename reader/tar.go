package reader

import (
	"archive/tar"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/sulibs/bagit/events"
)

// tarReader iterates a tar archive. Entry paths are returned exactly as
// stored in the archive, leading bag directory included; the validator
// strips that prefix. Each of List and Read makes its own pass over the
// archive, so the underlying file is reopened per call.
type tarReader struct {
	path string
	conf events.Config
	// wrap layers a decompressor over the raw file, or nil for plain tar
	wrap func(io.Reader) (io.Reader, error)
}

func newTar(path string, conf events.Config) (Reader, error) {
	return &tarReader{path: path, conf: conf}, nil
}

func newTarGz(path string, conf events.Config) (Reader, error) {
	wrap := func(r io.Reader) (io.Reader, error) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	}
	return &tarReader{path: path, conf: conf, wrap: wrap}, nil
}

func (t *tarReader) open() (*tar.Reader, *os.File, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", t.path)
	}
	var src io.Reader = f
	if t.wrap != nil {
		src, err = t.wrap(f)
		if err != nil {
			f.Close()
			return nil, nil, errors.Wrapf(err, "decompressing %s", t.path)
		}
	}
	return tar.NewReader(src), f, nil
}

func (t *tarReader) iterate(withBody bool, fn func(Entry, io.Reader) error) error {
	tr, f, err := t.open()
	if err != nil {
		return err
	}
	defer f.Close()
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s", t.path)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if !withBody {
				if err := fn(Entry{RelPath: hdr.Name, IsDir: true}, nil); err != nil {
					return err
				}
			}
		case tar.TypeReg:
			entry := Entry{RelPath: hdr.Name, Size: hdr.Size}
			var body io.Reader
			if withBody {
				body = tr
			}
			if err := fn(entry, body); err != nil {
				return err
			}
		default:
			t.conf.Info("skipping non-regular tar entry %s", hdr.Name)
		}
	}
}

func (t *tarReader) List(fn func(Entry) error) error {
	return t.iterate(false, func(e Entry, _ io.Reader) error { return fn(e) })
}

func (t *tarReader) Read(fn func(Entry, io.Reader) error) error {
	return t.iterate(true, fn)
}

func (t *tarReader) Close() error { return nil }
