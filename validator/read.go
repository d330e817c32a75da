package validator

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sulibs/bagit/bagit"
	"github.com/sulibs/bagit/digest"
	"github.com/sulibs/bagit/events"
	"github.com/sulibs/bagit/reader"
)

// nWorkers bounds how many files are hashed at once when the container
// allows random access.
const nWorkers = 4

// readFiles streams every file through the digest pipeline. It does not
// return until every hasher has drained, so the verification phase may
// freely read checksums afterwards.
func (v *Validator) readFiles(ctx context.Context, r reader.Reader) bool {
	var err error
	if v.isDir {
		err = v.readDirectory(ctx)
	} else {
		err = v.readArchive(ctx, r)
	}
	if err == context.Canceled {
		v.Conf.Info("validation of %s canceled", v.BagPath)
		return false
	}
	if err != nil {
		v.addProblem(bagit.Problemf(bagit.KindIORead, "Error reading bag: %s", err.Error()))
		return false
	}
	return true
}

// readDirectory hashes the files of an unserialized bag with a bounded
// worker pool. Every file has its own handle, so files proceed in
// parallel; the errgroup wait is the completion barrier.
func (v *Validator) readDirectory(ctx context.Context) error {
	paths := make([]string, 0, len(v.files))
	for rel := range v.files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nWorkers)
	total := len(paths)
	var processed int64
	for _, rel := range paths {
		if gctx.Err() != nil {
			break
		}
		v.slowMotion()
		rel := rel
		f := v.files[rel]
		abs := filepath.Join(v.BagPath, filepath.FromSlash(rel))
		g.Go(func() error {
			v.Monitor.OnTask(events.TaskRead, rel, "", 0)
			src, err := os.Open(abs)
			if err != nil {
				return err
			}
			err = v.hashFile(f, src)
			cerr := src.Close()
			if err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			n := atomic.AddInt64(&processed, 1)
			v.Monitor.OnTask(events.TaskChecksum, rel, "", int(n*100/int64(total)))
			return nil
		})
	}
	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = context.Canceled
	}
	return err
}

// readArchive hashes a serialized bag. Archive streams are forward-only,
// so entries are processed strictly one at a time; the wait group is the
// completion barrier, trivially satisfied but kept explicit.
func (v *Validator) readArchive(ctx context.Context, r reader.Reader) error {
	var wg sync.WaitGroup
	total := len(v.files)
	processed := 0
	err := r.Read(func(e reader.Entry, src io.Reader) error {
		if ctx.Err() != nil {
			return context.Canceled
		}
		rel := v.stripRoot(e.RelPath)
		if rel == "" {
			return nil
		}
		v.slowMotion()
		v.Monitor.OnTask(events.TaskRead, rel, "", 0)
		f := v.files[rel]
		if f == nil {
			f = bagit.NewFile(rel)
			v.files[rel] = f
		}
		wg.Add(1)
		err := v.hashFile(f, src)
		wg.Done()
		if err != nil {
			return err
		}
		processed++
		percent := 0
		if total > 0 {
			percent = processed * 100 / total
		}
		v.Monitor.OnTask(events.TaskChecksum, rel, "", percent)
		return nil
	})
	wg.Wait()
	return err
}

// hashFile pushes one file's bytes through a hasher per algorithm in the
// run's digest set, plus a parser when the file carries manifest or tag
// content. Safe to call from multiple goroutines on distinct files.
func (v *Validator) hashFile(f *bagit.File, src io.Reader) error {
	var parser bagit.Parser
	switch f.Role {
	case bagit.RolePayloadManifest, bagit.RoleTagManifest:
		parser = bagit.NewManifestParser()
	case bagit.RoleTag:
		if strings.HasSuffix(f.RelPath, ".txt") {
			parser = bagit.NewTagParser()
		}
	}
	dw := digest.NewWriter(nil, v.digests)
	var sink io.Writer = dw
	if parser != nil {
		sink = io.MultiWriter(dw, parser)
	}
	n, err := io.Copy(sink, src)
	if err != nil {
		return err
	}
	f.Size = n
	f.Checksums = dw.Sums()
	if parser != nil {
		f.Parsed = parser.End()
	}
	if f.Role == bagit.RolePayload {
		atomic.AddInt64(&v.payloadBytes, n)
		atomic.AddInt64(&v.payloadCount, 1)
	}
	return nil
}
