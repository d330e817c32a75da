// Package digest maps checksum algorithm names to streaming hashers, and
// provides a writer which fans bytes out to any number of them at once.
// The algorithm set is the one BagIt manifests use in the wild: md5, sha1,
// sha224, sha256, sha384, sha512.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"sort"
)

var constructors = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// strength orders algorithms from most to least preferred when we need to
// pick one. Used by the bagger's manifest chooser.
var strength = []string{"sha512", "sha256", "sha384", "sha224", "sha1", "md5"}

// Supported returns the algorithm names this package knows, sorted.
func Supported() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupported reports whether alg names a known algorithm. Names are
// lowercase; callers normalize before asking.
func IsSupported(alg string) bool {
	_, ok := constructors[alg]
	return ok
}

// New returns a fresh hasher for the given algorithm. Asking for an unknown
// algorithm is a programming error, not user input, so it panics.
func New(alg string) hash.Hash {
	f, ok := constructors[alg]
	if !ok {
		panic("digest: unknown algorithm " + alg)
	}
	return f()
}

// Strongest returns the most preferred algorithm present in algs, or ""
// if algs contains nothing we support.
func Strongest(algs []string) string {
	for _, want := range strength {
		for _, a := range algs {
			if a == want {
				return want
			}
		}
	}
	return ""
}

// A Writer computes several digests of everything written to it, optionally
// passing the bytes through to an underlying writer.
type Writer struct {
	io.Writer // MultiWriter over the sink and every hasher
	hashes    map[string]hash.Hash
}

// NewWriter returns a Writer hashing with each algorithm in algs. If w is
// nil the bytes are consumed by the hashers only. Duplicate algorithm names
// collapse to one hasher.
func NewWriter(w io.Writer, algs []string) *Writer {
	dw := &Writer{hashes: make(map[string]hash.Hash, len(algs))}
	writers := make([]io.Writer, 0, len(algs)+1)
	if w != nil {
		writers = append(writers, w)
	}
	for _, alg := range algs {
		if _, ok := dw.hashes[alg]; ok {
			continue
		}
		h := New(alg)
		dw.hashes[alg] = h
		writers = append(writers, h)
	}
	dw.Writer = io.MultiWriter(writers...)
	return dw
}

// Sums returns the lowercase hex digest for every algorithm this writer was
// created with. Call it after the last Write.
func (dw *Writer) Sums() map[string]string {
	result := make(map[string]string, len(dw.hashes))
	for alg, h := range dw.hashes {
		result[alg] = hex.EncodeToString(h.Sum(nil))
	}
	return result
}
