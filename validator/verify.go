package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/sulibs/bagit/bagit"
)

// The verification phase. Everything here runs after the completion
// barrier, in memory, appending problems in a deterministic order.

// sortedFiles returns the run's files sorted by path, filtered by role.
func (v *Validator) sortedFiles(role bagit.Role) []*bagit.File {
	var out []*bagit.File
	for _, f := range v.files {
		if f.Role == role {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out
}

func (v *Validator) checkRequiredManifests() {
	for _, alg := range v.Profile.ManifestsRequired {
		name := fmt.Sprintf("manifest-%s.txt", alg)
		if v.files[name] == nil {
			v.addProblem(bagit.Problemf(bagit.KindManifestMissing,
				"Required manifest '%s' is missing.", name))
		}
	}
	for _, alg := range v.Profile.TagManifestsRequired {
		name := fmt.Sprintf("tagmanifest-%s.txt", alg)
		if v.files[name] == nil {
			v.addProblem(bagit.Problemf(bagit.KindManifestMissing,
				"Required tag manifest '%s' is missing.", name))
		}
	}
}

func (v *Validator) checkAllowedManifests() {
	for _, f := range v.sortedFiles(bagit.RolePayloadManifest) {
		if !contains(v.Profile.ManifestsAllowed, f.Alg) {
			v.addProblem(bagit.Problemf(bagit.KindManifestNotAllowed,
				"Manifest '%s' is not allowed by this profile.", f.RelPath))
		}
	}
	for _, f := range v.sortedFiles(bagit.RoleTagManifest) {
		if !contains(v.Profile.TagManifestsAllowed, f.Alg) {
			v.addProblem(bagit.Problemf(bagit.KindManifestNotAllowed,
				"Tag manifest '%s' is not allowed by this profile.", f.RelPath))
		}
	}
}

// checkTagFilesAllowed tests every tag file other than bagit.txt against
// the profile's glob patterns. A "*" or empty pattern accepts anything
// and short-circuits the whole check.
func (v *Validator) checkTagFilesAllowed() {
	var patterns []glob.Glob
	for _, pat := range v.Profile.TagFilesAllowed {
		if pat == "" || pat == "*" {
			return
		}
		g, err := glob.Compile(pat)
		if err != nil {
			v.Conf.Error("bad tag file pattern %q in profile %s: %v", pat, v.Profile.Name, err)
			continue
		}
		patterns = append(patterns, g)
	}
	if len(patterns) == 0 {
		return
	}
	for _, f := range v.sortedFiles(bagit.RoleTag) {
		if f.RelPath == "bagit.txt" {
			continue
		}
		matched := false
		for _, g := range patterns {
			if g.Match(f.RelPath) {
				matched = true
				break
			}
		}
		if !matched {
			v.addProblem(bagit.Problemf(bagit.KindTagFileNotAllowed,
				"Tag file '%s' is not in the list of allowed tag files.", f.RelPath))
		}
	}
}

// checkManifestEntries verifies every digest recorded in every manifest
// and tag manifest, including manifests the profile never asked for; if a
// manifest is in the bag, its contents must be right.
func (v *Validator) checkManifestEntries() {
	manifests := append(v.sortedFiles(bagit.RolePayloadManifest),
		v.sortedFiles(bagit.RoleTagManifest)...)
	for _, m := range manifests {
		if m.Parsed == nil {
			continue
		}
		for _, entry := range m.Parsed.Pairs() {
			target := v.files[entry.Key]
			if target == nil {
				v.addProblem(bagit.Problemf(bagit.KindFileMissingInBag,
					"File '%s' in %s is missing from bag.", entry.Key, m.RelPath))
				continue
			}
			computed, ok := target.Checksums[m.Alg]
			if !ok {
				// algorithm we could not hash; the not-allowed check
				// already flagged the manifest
				continue
			}
			if computed != entry.Value {
				v.addProblem(bagit.Problemf(bagit.KindChecksumMismatch,
					"Bad %s digest for '%s': manifest says '%s', file digest is '%s'.",
					m.Alg, entry.Key, entry.Value, computed))
			}
		}
	}
}

// checkExtraneousPayload requires every payload file to appear in every
// payload manifest.
func (v *Validator) checkExtraneousPayload() {
	manifests := v.sortedFiles(bagit.RolePayloadManifest)
	payload := v.sortedFiles(bagit.RolePayload)
	for _, m := range manifests {
		if m.Parsed == nil {
			continue
		}
		for _, p := range payload {
			if !m.Parsed.Has(p.RelPath) {
				v.addProblem(bagit.Problemf(bagit.KindPayloadMissingInManifest,
					"Payload file %s not found in %s", p.RelPath, m.RelPath))
			}
		}
	}
}

// checkOxum compares a Payload-Oxum tag, when present, against the bytes
// and file count the read pass actually saw. Bytes and count are reported
// separately.
func (v *Validator) checkOxum() {
	info := v.files["bag-info.txt"]
	if info == nil || info.Parsed == nil {
		return
	}
	val, ok := info.Parsed.First("Payload-Oxum")
	if !ok {
		return
	}
	oxum, err := bagit.ParseOxum(val)
	if err != nil {
		v.addProblem(bagit.Problemf(bagit.KindOxumMismatch, "%s", err.Error()))
		return
	}
	if oxum.Bytes != v.payloadBytes {
		v.addProblem(bagit.Problemf(bagit.KindOxumMismatch,
			"Payload-Oxum says %d bytes, but bag payload totals %d bytes.",
			oxum.Bytes, v.payloadBytes))
	}
	if oxum.Count != v.payloadCount {
		v.addProblem(bagit.Problemf(bagit.KindOxumMismatch,
			"Payload-Oxum says %d files, but bag contains %d payload files.",
			oxum.Count, v.payloadCount))
	}
}

// checkBagItVersion requires bagit.txt to carry a version the profile
// accepts.
func (v *Validator) checkBagItVersion() {
	f := v.files["bagit.txt"]
	if f == nil || f.Parsed == nil || len(v.Profile.AcceptBagItVersion) == 0 {
		return
	}
	version, _ := f.Parsed.First("BagIt-Version")
	if version == "" {
		v.addProblem(bagit.Problemf(bagit.KindTagMissing,
			"Profile requires a specific BagIt version, but no version is specified in bagit.txt"))
		return
	}
	if !contains(v.Profile.AcceptBagItVersion, version) {
		v.addProblem(bagit.Problemf(bagit.KindTagIllegalValue,
			"BagIt version %s in bagit.txt does not match allowed version(s) %s",
			version, strings.Join(v.Profile.AcceptBagItVersion, ", ")))
	}
}

func (v *Validator) checkFetchTxt() {
	if !v.Profile.AllowFetchTxt && v.files["fetch.txt"] != nil {
		v.addProblem(bagit.Problemf(bagit.KindTagFileNotAllowed,
			"Found fetch.txt, which BagIt profile says is not allowed."))
	}
}

// checkTags walks the profile's tag definitions grouped by tag file.
func (v *Validator) checkTags() {
	for _, tagFile := range v.Profile.TagFileNames() {
		f := v.files[tagFile]
		if f == nil {
			v.addProblem(bagit.Problemf(bagit.KindTagMissing,
				"Required tag file '%s' is missing.", tagFile))
			continue
		}
		var named []*profileTag
		for _, def := range v.Profile.TagsForFile(tagFile) {
			if def.TagName != "" {
				named = append(named, &profileTag{def.TagName, def.Required, def.EmptyOK, def.Values})
			}
		}
		if len(named) == 0 {
			continue
		}
		if f.Parsed == nil {
			v.addProblem(bagit.Problemf(bagit.KindTagMissing,
				"Tag file '%s' has no data.", tagFile))
			continue
		}
		for _, def := range named {
			v.checkTag(tagFile, def, f.Parsed.All(def.name))
		}
	}
}

type profileTag struct {
	name     string
	required bool
	emptyOK  bool
	values   []string
}

func (v *Validator) checkTag(tagFile string, def *profileTag, values []string) {
	missing := len(values) == 0
	empty := true
	for _, val := range values {
		if val != "" {
			empty = false
		}
	}
	if !def.required && missing {
		return
	}
	if def.emptyOK && empty {
		return
	}
	if def.required && missing {
		v.addProblem(bagit.Problemf(bagit.KindTagMissing,
			"Required tag '%s' is missing from file '%s'.", def.name, tagFile))
		return
	}
	if !def.emptyOK && empty {
		v.addProblem(bagit.Problemf(bagit.KindTagEmpty,
			"Tag '%s' in file '%s' cannot be empty.", def.name, tagFile))
		return
	}
	if len(def.values) > 0 {
		for _, val := range values {
			if !contains(def.values, val) {
				v.addProblem(bagit.Problemf(bagit.KindTagIllegalValue,
					"Value '%s' for tag '%s' in '%s' is not in list of allowed values (%s)",
					val, def.name, tagFile, strings.Join(def.values, ", ")))
			}
		}
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
