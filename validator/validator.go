// Package validator checks a bag against a BagIt profile. One Validator
// drives one bag: it scans the container, streams every file through the
// digest pipeline, then applies the profile's rules to what it gathered.
// Findings accumulate as problems so a run reports everything wrong with
// a bag, not just the first thing.
package validator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/sulibs/bagit/bagit"
	"github.com/sulibs/bagit/digest"
	"github.com/sulibs/bagit/events"
	"github.com/sulibs/bagit/profile"
	"github.com/sulibs/bagit/reader"
)

// A Validator validates a single bag against a profile. Create one with
// New, call Validate once, then discard it.
type Validator struct {
	BagPath string
	Profile *profile.Profile
	Conf    events.Config
	Monitor events.Monitor

	files map[string]*bagit.File

	mu       sync.Mutex
	problems []bagit.Problem

	isDir   bool
	topDir  string // leading directory inside an archive, "" for directories
	digests []string

	payloadBytes int64
	payloadCount int64
}

// New returns a Validator for the bag at bagPath. The profile is borrowed
// read-only for the duration of the run. A nil monitor gets the no-op one.
func New(bagPath string, p *profile.Profile, conf events.Config, mon events.Monitor) *Validator {
	if mon == nil {
		mon = events.NopMonitor{}
	}
	return &Validator{
		BagPath: bagPath,
		Profile: p,
		Conf:    conf,
		Monitor: mon,
		files:   make(map[string]*bagit.File),
	}
}

// Validate runs every phase and returns the accumulated problems; an
// empty result means the bag satisfies the profile. The context is
// honored between files: once it is canceled no new entries are opened.
func (v *Validator) Validate(ctx context.Context) []bagit.Problem {
	v.Monitor.OnTask(events.TaskStart, "", "Validating "+v.BagPath, 0)
	defer v.Monitor.OnEnd()

	info, err := os.Stat(v.BagPath)
	if err != nil {
		v.addProblem(bagit.Problemf(bagit.KindIOMissing, "Bag does not exist at %s", v.BagPath))
		return v.problems
	}
	v.isDir = info.IsDir()

	if err := v.Profile.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			v.addProblem(bagit.Problemf(bagit.KindProfileInvalid, "%s", e.Error()))
		}
		return v.problems
	}

	if !v.checkSerialization() {
		return v.problems
	}

	r, err := reader.Open(v.BagPath, v.Conf)
	if err != nil {
		v.addProblem(bagit.Problemf(bagit.KindIORead, "%s", err.Error()))
		return v.problems
	}
	defer r.Close()

	if !v.scan(r) {
		return v.problems
	}
	if !v.readFiles(ctx, r) {
		return v.problems
	}

	// all hashers have drained; the profile checks may read checksums now
	v.checkRequiredManifests()
	v.checkAllowedManifests()
	v.checkTagFilesAllowed()
	v.checkManifestEntries()
	v.checkExtraneousPayload()
	v.checkOxum()
	v.checkBagItVersion()
	v.checkFetchTxt()
	v.checkTags()
	return v.problems
}

func (v *Validator) addProblem(p bagit.Problem) {
	v.mu.Lock()
	v.problems = append(v.problems, p)
	v.mu.Unlock()
	v.Monitor.OnError(p.Message)
}

// stripRoot removes the leading archive directory from an entry path.
// Directory bags pass through unchanged.
func (v *Validator) stripRoot(relPath string) string {
	if v.isDir {
		return relPath
	}
	i := strings.IndexByte(relPath, '/')
	if i < 0 {
		return "" // the top-level directory entry itself
	}
	return relPath[i+1:]
}

// scan runs the List pass: it finds the archive's top directory, applies
// the untar-name check, pre-populates the file map, and widens the digest
// set with every algorithm that has a manifest in the bag, whether or not
// the profile asked for it.
func (v *Validator) scan(r reader.Reader) bool {
	algs := make(map[string]bool)
	for _, a := range v.Profile.ManifestsRequired {
		algs[a] = true
	}
	for _, a := range v.Profile.TagManifestsRequired {
		algs[a] = true
	}

	err := r.List(func(e reader.Entry) error {
		if !v.isDir && v.topDir == "" {
			v.topDir = strings.SplitN(e.RelPath, "/", 2)[0]
		}
		rel := v.stripRoot(e.RelPath)
		if rel == "" || e.IsDir {
			return nil
		}
		f := bagit.NewFile(rel)
		f.Size = e.Size
		v.files[rel] = f
		v.Monitor.OnTask(events.TaskAdd, rel, "", 0)
		if f.Alg != "" && digest.IsSupported(f.Alg) {
			algs[f.Alg] = true
		}
		return nil
	})
	if err != nil {
		v.addProblem(bagit.Problemf(bagit.KindIORead, "Error reading bag: %s", err.Error()))
		return false
	}

	for a := range algs {
		v.digests = append(v.digests, a)
	}

	// untar directory check
	if !v.isDir && strings.HasSuffix(strings.ToLower(v.BagPath), ".tar") &&
		v.Profile.TarDirMustMatchName {
		want := strings.TrimSuffix(filepath.Base(v.BagPath), filepath.Ext(v.BagPath))
		if v.topDir != want {
			v.addProblem(bagit.Problemf(bagit.KindUntarNameMismatch,
				"Bag should untar to directory '%s', not '%s'", want, v.topDir))
			return false
		}
	}
	return true
}

// slowMotion pauses between file opens when the host asked for UI pacing.
func (v *Validator) slowMotion() {
	if v.Conf.SlowMotionDelay > 0 {
		time.Sleep(time.Duration(v.Conf.SlowMotionDelay) * time.Millisecond)
	}
}

// checkSerialization applies the profile's serialization policy to the
// shape of the bag on disk. Returns false when the run cannot continue.
func (v *Validator) checkSerialization() bool {
	if v.Conf.DisableSerializationCheck {
		v.Conf.Info("serialization check disabled for %s", v.BagPath)
		return true
	}
	switch v.Profile.Serialization {
	case profile.SerializationRequired:
		if v.isDir {
			v.addProblem(bagit.Problemf(bagit.KindSerialization,
				"Bag must be serialized, but %s is a directory", v.BagPath))
			return false
		}
		return v.checkSerializationFormat()
	case profile.SerializationForbidden:
		if !v.isDir {
			v.addProblem(bagit.Problemf(bagit.KindSerialization,
				"Bag must not be serialized, but %s is a single file", v.BagPath))
			return false
		}
	default:
		if !v.isDir {
			return v.checkSerializationFormat()
		}
	}
	return true
}

func (v *Validator) checkSerializationFormat() bool {
	for _, mimeType := range v.Profile.AcceptSerialization {
		if bagit.SerializationMatches(mimeType, strings.ToLower(v.BagPath)) {
			return true
		}
	}
	v.addProblem(bagit.Problemf(bagit.KindSerialization,
		"Serialization format of %s is not in the profile's accepted list (%s)",
		filepath.Base(v.BagPath), strings.Join(v.Profile.AcceptSerialization, ", ")))
	return false
}
