// Package bagit holds the in-memory model for the contents of a single bag:
// the per-file record built up while reading, the ordered tag list used for
// parsed tag files and manifests, and the streaming parsers for the two
// text formats BagIt defines.
//
// The BagIt spec can be found at https://tools.ietf.org/html/rfc8493.
package bagit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Version is the version of the BagIt specification written into
	// new bags.
	Version = "0.97"
)

// A Role classifies where a file sits in the bag layout.
type Role int

const (
	// RolePayload is a file under data/.
	RolePayload Role = iota
	// RolePayloadManifest is a manifest-<alg>.txt file.
	RolePayloadManifest
	// RoleTagManifest is a tagmanifest-<alg>.txt file.
	RoleTagManifest
	// RoleTag is any other file in the bag.
	RoleTag
)

func (r Role) String() string {
	switch r {
	case RolePayload:
		return "payload"
	case RolePayloadManifest:
		return "manifest"
	case RoleTagManifest:
		return "tag-manifest"
	default:
		return "tag"
	}
}

var (
	manifestRE    = regexp.MustCompile(`^manifest-(\w+)\.txt$`)
	tagManifestRE = regexp.MustCompile(`^tagmanifest-(\w+)\.txt$`)
)

// ParseRole classifies a bag-root-relative, forward-slashed path. For
// manifests and tag manifests the algorithm from the file name is returned
// as the second value; otherwise it is empty.
func ParseRole(relPath string) (Role, string) {
	if m := manifestRE.FindStringSubmatch(relPath); m != nil {
		return RolePayloadManifest, strings.ToLower(m[1])
	}
	if m := tagManifestRE.FindStringSubmatch(relPath); m != nil {
		return RoleTagManifest, strings.ToLower(m[1])
	}
	if strings.HasPrefix(relPath, "data/") {
		return RolePayload, ""
	}
	return RoleTag, ""
}

// A File is the record kept for each file encountered while reading or
// writing a bag. It exists for the duration of one validation or bagging
// run.
type File struct {
	// RelPath is bag-root-relative and always forward-slashed. For
	// tarred bags the leading directory equal to the bag name has been
	// stripped already.
	RelPath string

	Role Role

	// Alg is the algorithm from the file name when Role is
	// RolePayloadManifest or RoleTagManifest.
	Alg string

	// Size in bytes of the file's content.
	Size int64

	// Checksums maps algorithm name to the lowercase hex digest of the
	// file's bytes, for each algorithm in the run's digest set.
	Checksums map[string]string

	// Parsed holds the file's key/value content when the file was fed
	// through a parser: manifests map relative path to digest, tag files
	// map tag name to value.
	Parsed *TagList
}

// NewFile returns a File for relPath with its role classified.
func NewFile(relPath string) *File {
	role, alg := ParseRole(relPath)
	return &File{
		RelPath:   relPath,
		Role:      role,
		Alg:       alg,
		Checksums: make(map[string]string),
	}
}

// An Oxum is the "Payload-Oxum" summary of a bag's payload: total byte
// count and file count.
type Oxum struct {
	Bytes int64
	Count int64
}

func (o Oxum) String() string {
	return fmt.Sprintf("%d.%d", o.Bytes, o.Count)
}

// ParseOxum parses the "<bytes>.<count>" form.
func ParseOxum(s string) (Oxum, error) {
	var o Oxum
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return o, fmt.Errorf("malformed Payload-Oxum %q", s)
	}
	var err error
	o.Bytes, err = strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return o, fmt.Errorf("malformed Payload-Oxum %q", s)
	}
	o.Count, err = strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return o, fmt.Errorf("malformed Payload-Oxum %q", s)
	}
	return o, nil
}
