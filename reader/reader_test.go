package reader

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/sulibs/bagit/events"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0775); err != nil {
		t.Fatalf("MkdirAll() error %s", err.Error())
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error %s", err.Error())
	}
}

// collect runs both phases of a reader and returns the listed paths and
// the streamed contents.
func collect(t *testing.T, r Reader) ([]string, map[string]string) {
	t.Helper()
	var listed []string
	err := r.List(func(e Entry) error {
		if !e.IsDir {
			listed = append(listed, e.RelPath)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("List() error %s", err.Error())
	}
	contents := make(map[string]string)
	err = r.Read(func(e Entry, src io.Reader) error {
		b, err := io.ReadAll(src)
		if err != nil {
			return err
		}
		contents[e.RelPath] = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("Read() error %s", err.Error())
	}
	sort.Strings(listed)
	return listed, contents
}

func TestDirectoryReader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bagit.txt", "BagIt-Version: 0.97\n")
	writeFile(t, root, "data/sub/file.txt", "hello")

	r, err := Open(root, events.Config{})
	if err != nil {
		t.Fatalf("Open() error %s", err.Error())
	}
	defer r.Close()
	listed, contents := collect(t, r)

	want := []string{"bagit.txt", "data/sub/file.txt"}
	if len(listed) != len(want) {
		t.Fatalf("List() = %v, expected %v", listed, want)
	}
	for i := range want {
		if listed[i] != want[i] {
			t.Errorf("List()[%d] = %s, expected %s", i, listed[i], want[i])
		}
	}
	if contents["data/sub/file.txt"] != "hello" {
		t.Errorf("content = %q, expected hello", contents["data/sub/file.txt"])
	}
}

func TestDirectoryReaderSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/real.txt", "x")
	if err := os.Symlink(filepath.Join(root, "data/real.txt"), filepath.Join(root, "data/link.txt")); err != nil {
		t.Skipf("cannot create symlinks: %s", err.Error())
	}
	r, _ := Open(root, events.Config{})
	defer r.Close()
	listed, _ := collect(t, r)
	for _, p := range listed {
		if p == "data/link.txt" {
			t.Errorf("symlink was listed")
		}
	}
}

// tarball builds a tar archive holding the given files under topdir.
func tarball(t *testing.T, topdir string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		body := files[n]
		err := tw.WriteHeader(&tar.Header{
			Name:     topdir + "/" + n,
			Typeflag: tar.TypeReg,
			Size:     int64(len(body)),
			Mode:     0644,
		})
		if err != nil {
			t.Fatalf("WriteHeader() error %s", err.Error())
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("Write() error %s", err.Error())
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close() error %s", err.Error())
	}
	return buf.Bytes()
}

func TestTarReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mybag.tar")
	data := tarball(t, "mybag", map[string]string{
		"bagit.txt":     "BagIt-Version: 0.97\n",
		"data/file.txt": "payload bytes",
	})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile() error %s", err.Error())
	}

	r, err := Open(path, events.Config{})
	if err != nil {
		t.Fatalf("Open() error %s", err.Error())
	}
	defer r.Close()
	listed, contents := collect(t, r)

	// tar paths come back verbatim, leading directory included
	if len(listed) != 2 || listed[0] != "mybag/bagit.txt" {
		t.Fatalf("List() = %v", listed)
	}
	if contents["mybag/data/file.txt"] != "payload bytes" {
		t.Errorf("content = %q", contents["mybag/data/file.txt"])
	}
}

func TestTarGzReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mybag.tar.gz")
	data := tarball(t, "mybag", map[string]string{"data/a.txt": "abc"})
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(data)
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip Close() error %s", err.Error())
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile() error %s", err.Error())
	}

	r, err := Open(path, events.Config{})
	if err != nil {
		t.Fatalf("Open() error %s", err.Error())
	}
	defer r.Close()
	_, contents := collect(t, r)
	if contents["mybag/data/a.txt"] != "abc" {
		t.Errorf("content = %q, expected abc", contents["mybag/data/a.txt"])
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bag.rar")
	os.WriteFile(path, []byte("x"), 0644)
	if _, err := Open(path, events.Config{}); err == nil {
		t.Errorf("Open(bag.rar) succeeded, expected error")
	}
}
