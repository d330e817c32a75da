// Package profile implements BagIt profiles: the declarative rule sets a
// bag is validated against. A profile follows the DART form, which is
// richer than the community bagit-profiles schema; conversion to and from
// that schema lives in standard.go.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sulibs/bagit/bagit"
	"github.com/sulibs/bagit/digest"
)

// Serialization policy values.
const (
	SerializationRequired  = "required"
	SerializationOptional  = "optional"
	SerializationForbidden = "forbidden"
)

// A TagDefinition describes one tag a profile cares about: which tag file
// it lives in, whether it must be present, and which values are legal.
// A definition with an empty TagName requires only that the tag file
// itself exist.
type TagDefinition struct {
	TagFile      string   `json:"tagFile" yaml:"tagFile"`
	TagName      string   `json:"tagName" yaml:"tagName"`
	Required     bool     `json:"required" yaml:"required"`
	EmptyOK      bool     `json:"emptyOk" yaml:"emptyOk"`
	Values       []string `json:"values,omitempty" yaml:"values,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	UserValue    string   `json:"userValue,omitempty" yaml:"userValue,omitempty"`

	// provenance flags, used by the UI layer
	IsBuiltIn       bool `json:"isBuiltIn" yaml:"isBuiltIn"`
	IsUserAddedFile bool `json:"isUserAddedFile" yaml:"isUserAddedFile"`
	IsUserAddedTag  bool `json:"isUserAddedTag" yaml:"isUserAddedTag"`
	WasAddedForJob  bool `json:"wasAddedForJob" yaml:"wasAddedForJob"`
}

// GetValue returns the value to write when bagging: the user's value if
// set, else the default.
func (t *TagDefinition) GetValue() string {
	if t.UserValue != "" {
		return t.UserValue
	}
	return t.DefaultValue
}

// A Profile is a declarative set of constraints specializing BagIt for a
// community. Profiles are mutable until handed to a validator, which
// borrows them read-only.
type Profile struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	IsBuiltIn   bool   `json:"isBuiltIn" yaml:"isBuiltIn"`

	AcceptBagItVersion  []string `json:"acceptBagItVersion" yaml:"acceptBagItVersion"`
	AcceptSerialization []string `json:"acceptSerialization" yaml:"acceptSerialization"`
	Serialization       string   `json:"serialization" yaml:"serialization"`
	AllowFetchTxt       bool     `json:"allowFetchTxt" yaml:"allowFetchTxt"`

	ManifestsRequired    []string `json:"manifestsRequired" yaml:"manifestsRequired"`
	ManifestsAllowed     []string `json:"manifestsAllowed" yaml:"manifestsAllowed"`
	TagManifestsRequired []string `json:"tagManifestsRequired" yaml:"tagManifestsRequired"`
	TagManifestsAllowed  []string `json:"tagManifestsAllowed" yaml:"tagManifestsAllowed"`

	// TagFilesAllowed holds glob patterns; ["*"] means any tag file is
	// welcome.
	TagFilesAllowed []string `json:"tagFilesAllowed" yaml:"tagFilesAllowed"`

	TarDirMustMatchName bool `json:"tarDirMustMatchName" yaml:"tarDirMustMatchName"`

	Tags []*TagDefinition `json:"tags" yaml:"tags"`
}

// New returns a profile with the definitions every well-formed profile
// must carry: bagit.txt with its two fixed tags, and an empty bag-info.txt
// section seeded with the common tags.
func New(name string) *Profile {
	p := &Profile{
		ID:                   uuid.NewString(),
		Name:                 name,
		AcceptBagItVersion:   []string{"0.97", "1.0"},
		AcceptSerialization:  []string{"application/tar"},
		Serialization:        SerializationOptional,
		ManifestsRequired:    []string{},
		ManifestsAllowed:     digest.Supported(),
		TagManifestsRequired: []string{},
		TagManifestsAllowed:  digest.Supported(),
		TagFilesAllowed:      []string{"*"},
	}
	p.Tags = []*TagDefinition{
		{TagFile: "bagit.txt", TagName: "BagIt-Version", Required: true,
			DefaultValue: bagit.Version, IsBuiltIn: true},
		{TagFile: "bagit.txt", TagName: "Tag-File-Character-Encoding",
			Required: true, DefaultValue: "UTF-8", IsBuiltIn: true},
		{TagFile: "bag-info.txt", TagName: "Source-Organization",
			EmptyOK: true, IsBuiltIn: true},
		{TagFile: "bag-info.txt", TagName: "Bagging-Date",
			EmptyOK: true, IsBuiltIn: true},
		{TagFile: "bag-info.txt", TagName: "Payload-Oxum",
			EmptyOK: true, IsBuiltIn: true},
	}
	return p
}

// FindTag returns the first definition for the given tag file and name,
// or nil.
func (p *Profile) FindTag(tagFile, tagName string) *TagDefinition {
	for _, t := range p.Tags {
		if t.TagFile == tagFile && t.TagName == tagName {
			return t
		}
	}
	return nil
}

// TagFileNames returns each distinct tag file named by a definition, in
// first-appearance order.
func (p *Profile) TagFileNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, t := range p.Tags {
		if !seen[t.TagFile] {
			seen[t.TagFile] = true
			names = append(names, t.TagFile)
		}
	}
	return names
}

// TagsForFile returns the definitions for one tag file, in profile order.
func (p *Profile) TagsForFile(tagFile string) []*TagDefinition {
	var defs []*TagDefinition
	for _, t := range p.Tags {
		if t.TagFile == tagFile {
			defs = append(defs, t)
		}
	}
	return defs
}

// Validate checks the profile's own well-formedness. All failures are
// reported, combined into one error; nil means the profile is usable.
func (p *Profile) Validate() error {
	var err error
	if p.ID == "" {
		err = multierr.Append(err, fmt.Errorf("profile is missing an id"))
	}
	if p.Name == "" {
		err = multierr.Append(err, fmt.Errorf("profile is missing a name"))
	}
	if len(p.AcceptBagItVersion) == 0 {
		err = multierr.Append(err, fmt.Errorf("profile must accept at least one BagIt version"))
	}
	if len(p.ManifestsAllowed) == 0 {
		err = multierr.Append(err, fmt.Errorf("profile must allow at least one manifest algorithm"))
	}
	if len(p.TagManifestsAllowed) == 0 {
		err = multierr.Append(err, fmt.Errorf("profile must allow at least one tag manifest algorithm"))
	}
	err = multierr.Append(err, requireSubset("manifest", p.ManifestsRequired, p.ManifestsAllowed))
	err = multierr.Append(err, requireSubset("tag manifest", p.TagManifestsRequired, p.TagManifestsAllowed))
	switch p.Serialization {
	case SerializationRequired, SerializationOptional, SerializationForbidden:
	default:
		err = multierr.Append(err, fmt.Errorf("serialization must be one of required, optional, forbidden; got %q", p.Serialization))
	}
	if p.FindTag("bagit.txt", "BagIt-Version") == nil ||
		p.FindTag("bagit.txt", "Tag-File-Character-Encoding") == nil {
		err = multierr.Append(err, fmt.Errorf("profile must define the bagit.txt tags BagIt-Version and Tag-File-Character-Encoding"))
	}
	hasBagInfo := false
	for _, t := range p.Tags {
		if t.TagFile == "bag-info.txt" {
			hasBagInfo = true
		}
		if t.UserValue != "" && len(t.Values) > 0 && !contains(t.Values, t.UserValue) {
			err = multierr.Append(err, fmt.Errorf(
				"value %q for tag %s in %s is not in the list of allowed values",
				t.UserValue, t.TagName, t.TagFile))
		}
	}
	if !hasBagInfo {
		err = multierr.Append(err, fmt.Errorf("profile must define tags for bag-info.txt"))
	}
	return err
}

func requireSubset(kind string, required, allowed []string) error {
	var err error
	for _, alg := range required {
		if !contains(allowed, alg) {
			err = multierr.Append(err, fmt.Errorf(
				"required %s algorithm %s is not in the allowed list", kind, alg))
		}
	}
	return err
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Clone returns a deep copy with a fresh ID, used when deriving a new
// profile from a built-in.
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.ID = uuid.NewString()
	cp.IsBuiltIn = false
	cp.AcceptBagItVersion = append([]string(nil), p.AcceptBagItVersion...)
	cp.AcceptSerialization = append([]string(nil), p.AcceptSerialization...)
	cp.ManifestsRequired = append([]string(nil), p.ManifestsRequired...)
	cp.ManifestsAllowed = append([]string(nil), p.ManifestsAllowed...)
	cp.TagManifestsRequired = append([]string(nil), p.TagManifestsRequired...)
	cp.TagManifestsAllowed = append([]string(nil), p.TagManifestsAllowed...)
	cp.TagFilesAllowed = append([]string(nil), p.TagFilesAllowed...)
	cp.Tags = make([]*TagDefinition, len(p.Tags))
	for i, t := range p.Tags {
		td := *t
		td.Values = append([]string(nil), t.Values...)
		cp.Tags[i] = &td
	}
	return &cp
}

// Load reads a profile from a JSON or YAML file, deciding by extension.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := &Profile{}
	if strings.HasSuffix(strings.ToLower(path), ".yaml") ||
		strings.HasSuffix(strings.ToLower(path), ".yml") {
		err = yaml.Unmarshal(data, p)
	} else {
		err = json.Unmarshal(data, p)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
