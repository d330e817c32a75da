// Package bagger builds bags. A Bagger takes a list of source files, a
// target profile, and an output path, and produces either a bag directory
// or a single tar archive, with manifests and tag manifests computed from
// the same bytes that went into the bag.
package bagger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sulibs/bagit/bagit"
	"github.com/sulibs/bagit/digest"
	"github.com/sulibs/bagit/events"
	"github.com/sulibs/bagit/profile"
)

// A Source names one file to put into the bag: where it is now, and its
// path under data/ in the finished bag.
type Source struct {
	AbsPath string
	Dest    string // forward-slashed, relative to data/
}

// A Bagger writes one bag. Create with New, set any extra tag values,
// call Run once.
type Bagger struct {
	OutPath string
	Profile *profile.Profile
	Sources []Source
	Conf    events.Config
	Monitor events.Monitor

	// TagValues overrides or supplements the profile's tag values,
	// keyed by tag file then tag name. The job layer fills this in.
	TagValues map[string]map[string]string

	files    map[string]*bagit.File
	problems []bagit.Problem
	oxum     bagit.Oxum

	payloadAlgs []string
	tagAlgs     []string
}

// New returns a Bagger writing to outPath. A trailing ".tar" selects the
// archive sink; anything else produces a directory.
func New(outPath string, p *profile.Profile, sources []Source, conf events.Config, mon events.Monitor) *Bagger {
	if mon == nil {
		mon = events.NopMonitor{}
	}
	return &Bagger{
		OutPath:   outPath,
		Profile:   p,
		Sources:   sources,
		Conf:      conf,
		Monitor:   mon,
		TagValues: make(map[string]map[string]string),
		files:     make(map[string]*bagit.File),
	}
}

// SetTag records a tag value to write into the given tag file.
func (b *Bagger) SetTag(tagFile, name, value string) {
	m := b.TagValues[tagFile]
	if m == nil {
		m = make(map[string]string)
		b.TagValues[tagFile] = m
	}
	m[name] = value
}

// Oxum returns the payload summary computed by the last Run.
func (b *Bagger) Oxum() bagit.Oxum { return b.oxum }

// ChooseManifestAlgorithms resolves which payload manifest algorithms to
// write when a profile leaves the choice open. The preference order runs
// from the intersection of the two required sets down to sha512 as the
// final fallback.
func ChooseManifestAlgorithms(p *profile.Profile) []string {
	var both []string
	for _, a := range p.ManifestsRequired {
		if contains(p.TagManifestsRequired, a) {
			both = append(both, a)
		}
	}
	switch {
	case len(both) > 0:
		return both
	case len(p.ManifestsRequired) > 0:
		return append([]string(nil), p.ManifestsRequired...)
	case len(p.TagManifestsRequired) > 0:
		return append([]string(nil), p.TagManifestsRequired...)
	}
	if best := digest.Strongest(p.ManifestsAllowed); best != "" {
		return []string{best}
	}
	return []string{"sha512"}
}

// Run writes the bag. The returned problem list is empty on success. The
// pre-flight tag check reports every missing required value before the
// run stops; after that the first problem is terminal. Nothing is
// retried, and a partly written bag is left for the caller to clean up.
func (b *Bagger) Run(ctx context.Context) []bagit.Problem {
	b.Monitor.OnTask(events.TaskStart, "", "Bagging to "+b.OutPath, 0)
	defer b.Monitor.OnEnd()

	if err := b.Profile.Validate(); err != nil {
		return b.fail(bagit.KindProfileInvalid, "%s", err.Error())
	}
	if probs := b.checkRequiredTagValues(); len(probs) > 0 {
		return probs
	}

	b.payloadAlgs = ChooseManifestAlgorithms(b.Profile)
	b.tagAlgs = append([]string(nil), b.Profile.TagManifestsRequired...)

	sink, err := b.openSink()
	if err != nil {
		return b.fail(bagit.KindBaggerWriteFailed, "%s", err.Error())
	}

	ok := b.writePayload(ctx, sink) &&
		b.writeTagFiles(sink) &&
		b.writePayloadManifests(sink) &&
		b.writeTagManifests(sink)
	cerr := sink.close()
	if !ok {
		return b.problems
	}
	if cerr != nil {
		return b.fail(bagit.KindBaggerWriteFailed, "finalizing %s: %s", b.OutPath, cerr.Error())
	}
	return b.problems
}

func (b *Bagger) fail(kind, format string, args ...interface{}) []bagit.Problem {
	p := bagit.Problemf(kind, format, args...)
	b.problems = append(b.problems, p)
	b.Monitor.OnError(p.Message)
	return b.problems
}

// checkRequiredTagValues is the pre-flight: every required tag that
// cannot be empty must have a value from the profile or the job before
// any byte is written. Tags the bagger computes itself are exempt.
func (b *Bagger) checkRequiredTagValues() []bagit.Problem {
	auto := map[string]bool{
		"Payload-Oxum": true,
		"Bagging-Date": true,
		"Bag-Size":     true,
	}
	for _, def := range b.Profile.Tags {
		if !def.Required || def.EmptyOK || def.TagName == "" || auto[def.TagName] {
			continue
		}
		if b.tagValue(def) == "" {
			b.fail(bagit.KindTagMissing,
				"Required tag '%s' in '%s' has no value.", def.TagName, def.TagFile)
		}
	}
	return b.problems
}

func (b *Bagger) tagValue(def *profile.TagDefinition) string {
	if m := b.TagValues[def.TagFile]; m != nil {
		if v, ok := m[def.TagName]; ok {
			return v
		}
	}
	return def.GetValue()
}

func (b *Bagger) openSink() (sink, error) {
	if strings.HasSuffix(strings.ToLower(b.OutPath), ".tar") {
		bagName := strings.TrimSuffix(filepath.Base(b.OutPath), ".tar")
		return newTarSink(b.OutPath, bagName)
	}
	return newDirSink(b.OutPath)
}

// writePayload streams each source into data/, fanning the bytes out to
// the sink and one hasher per payload algorithm.
func (b *Bagger) writePayload(ctx context.Context, s sink) bool {
	sources := make([]Source, len(b.Sources))
	copy(sources, b.Sources)
	sort.Slice(sources, func(i, j int) bool { return sources[i].Dest < sources[j].Dest })

	for _, src := range sources {
		if ctx.Err() != nil {
			b.fail(bagit.KindBaggerWriteFailed, "bagging canceled")
			return false
		}
		if b.Conf.SlowMotionDelay > 0 {
			time.Sleep(time.Duration(b.Conf.SlowMotionDelay) * time.Millisecond)
		}
		info, err := os.Stat(src.AbsPath)
		if err != nil {
			b.fail(bagit.KindBaggerSourceMissing, "Source file %s is missing.", src.AbsPath)
			return false
		}
		rel := "data/" + strings.TrimPrefix(src.Dest, "data/")
		b.Monitor.OnTask(events.TaskAdd, rel, "", 0)
		w, err := s.create(rel, info.Size(), info.Mode(), info.ModTime())
		if err != nil {
			b.fail(bagit.KindBaggerWriteFailed, "%s", err.Error())
			return false
		}
		in, err := os.Open(src.AbsPath)
		if err != nil {
			b.fail(bagit.KindBaggerSourceMissing, "Source file %s is missing.", src.AbsPath)
			return false
		}
		dw := digest.NewWriter(w, b.payloadAlgs)
		n, err := io.Copy(dw, in)
		cerr := in.Close()
		if err == nil {
			err = cerr
		}
		if err != nil {
			b.fail(bagit.KindBaggerWriteFailed, "writing %s: %s", rel, err.Error())
			return false
		}
		f := bagit.NewFile(rel)
		f.Size = n
		f.Checksums = dw.Sums()
		b.files[rel] = f
		b.oxum.Bytes += n
		b.oxum.Count++
		b.Monitor.OnTask(events.TaskChecksum, rel, "", 0)
	}
	return true
}

// writeBytes puts a generated file into the bag, hashing it with the tag
// manifest algorithms so it can appear in the tag manifests.
func (b *Bagger) writeBytes(s sink, relPath string, content []byte) bool {
	w, err := s.create(relPath, int64(len(content)), 0644, time.Now())
	if err != nil {
		b.fail(bagit.KindBaggerWriteFailed, "%s", err.Error())
		return false
	}
	dw := digest.NewWriter(w, b.tagAlgs)
	if _, err := dw.Write(content); err != nil {
		b.fail(bagit.KindBaggerWriteFailed, "writing %s: %s", relPath, err.Error())
		return false
	}
	f := bagit.NewFile(relPath)
	f.Size = int64(len(content))
	f.Checksums = dw.Sums()
	b.files[relPath] = f
	return true
}

// writeTagFiles renders bagit.txt, bag-info.txt and any other tag file
// the profile defines. Payload-Oxum, Bagging-Date and Bag-Size are
// computed here unless the job already set them.
func (b *Bagger) writeTagFiles(s sink) bool {
	names := []string{"bagit.txt", "bag-info.txt"}
	for _, n := range b.Profile.TagFileNames() {
		if n != "bagit.txt" && n != "bag-info.txt" {
			names = append(names, n)
		}
	}
	for _, tagFile := range names {
		tags := bagit.NewTagList()
		for _, def := range b.Profile.TagsForFile(tagFile) {
			if def.TagName == "" {
				continue
			}
			if val := b.tagValue(def); val != "" {
				tags.Add(def.TagName, val)
			}
		}
		// job-supplied tags the profile doesn't define
		if extra := b.TagValues[tagFile]; extra != nil {
			extraNames := make([]string, 0, len(extra))
			for name := range extra {
				if !tags.Has(name) && b.Profile.FindTag(tagFile, name) == nil {
					extraNames = append(extraNames, name)
				}
			}
			sort.Strings(extraNames)
			for _, name := range extraNames {
				if extra[name] != "" {
					tags.Add(name, extra[name])
				}
			}
		}
		if tagFile == "bag-info.txt" {
			if !tags.Has("Payload-Oxum") {
				tags.Add("Payload-Oxum", b.oxum.String())
			}
			if !tags.Has("Bagging-Date") {
				tags.Add("Bagging-Date", time.Now().Format("2006-01-02"))
			}
			if !tags.Has("Bag-Size") {
				tags.Add("Bag-Size", humansize(b.oxum.Bytes))
			}
		}
		if !b.writeBytes(s, tagFile, bagit.FormatTags(tags)) {
			return false
		}
	}
	return true
}

// manifestContent renders manifest lines sorted by path so repeated runs
// of the same inputs produce identical bytes.
func (b *Bagger) manifestContent(alg string, role bagit.Role) []byte {
	var paths []string
	for rel, f := range b.files {
		if roleInManifest(f.Role, role) {
			paths = append(paths, rel)
		}
	}
	sort.Strings(paths)
	var buf bytes.Buffer
	for _, rel := range paths {
		sum, ok := b.files[rel].Checksums[alg]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "%s %s\n", sum, rel)
	}
	return buf.Bytes()
}

// roleInManifest says whether a file with the given role belongs in a
// payload manifest or a tag manifest.
func roleInManifest(fileRole, manifestRole bagit.Role) bool {
	if manifestRole == bagit.RolePayloadManifest {
		return fileRole == bagit.RolePayload
	}
	// tag manifests cover every non-payload file written so far,
	// including the payload manifests
	return fileRole != bagit.RolePayload
}

func (b *Bagger) writePayloadManifests(s sink) bool {
	for _, alg := range b.payloadAlgs {
		name := fmt.Sprintf("manifest-%s.txt", alg)
		if !b.writeBytes(s, name, b.manifestContent(alg, bagit.RolePayloadManifest)) {
			return false
		}
	}
	return true
}

func (b *Bagger) writeTagManifests(s sink) bool {
	for _, alg := range b.tagAlgs {
		name := fmt.Sprintf("tagmanifest-%s.txt", alg)
		content := b.manifestContent(alg, bagit.RoleTagManifest)
		w, err := s.create(name, int64(len(content)), 0644, time.Now())
		if err != nil {
			b.fail(bagit.KindBaggerWriteFailed, "%s", err.Error())
			return false
		}
		if _, err := w.Write(content); err != nil {
			b.fail(bagit.KindBaggerWriteFailed, "writing %s: %s", name, err.Error())
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Metric constants for humansize.
const (
	kb int64 = 1000
	mb       = 1000 * kb
	gb       = 1000 * mb
	tb       = 1000 * gb
)

func humansize(size int64) string {
	var units string
	switch {
	case size < kb:
		units = "Bytes"
	case size < mb:
		size /= kb
		units = "KB"
	case size < gb:
		size /= mb
		units = "MB"
	case size < tb:
		size /= gb
		units = "GB"
	default:
		size /= tb
		units = "TB"
	}
	return fmt.Sprintf("%d %s", size, units)
}
