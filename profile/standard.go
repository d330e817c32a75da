package profile

import (
	"encoding/json"
	"fmt"

	"github.com/antonholmquist/jason"

	"github.com/sulibs/bagit/digest"
)

// This file converts between the internal profile form and the community
// "standard" schema from https://github.com/bagit-profiles. The standard
// schema can only describe tags inside bag-info.txt, so conversion is
// lossy in two documented ways; see ExportStandard.

// standardProfile is the wire form used on export. Import goes through
// jason instead, because real-world profile JSON is loose about which keys
// are present and what shape their values take.
type standardProfile struct {
	AcceptBagItVersion   []string               `json:"Accept-BagIt-Version"`
	AcceptSerialization  []string               `json:"Accept-Serialization"`
	AllowFetchTxt        bool                   `json:"Allow-Fetch.txt"`
	Serialization        string                 `json:"Serialization"`
	ManifestsRequired    []string               `json:"Manifests-Required"`
	ManifestsAllowed     []string               `json:"Manifests-Allowed"`
	TagManifestsRequired []string               `json:"Tag-Manifests-Required"`
	TagManifestsAllowed  []string               `json:"Tag-Manifests-Allowed"`
	TagFilesAllowed      []string               `json:"Tag-Files-Allowed"`
	TagFilesRequired     []string               `json:"Tag-Files-Required,omitempty"`
	ProfileInfo          map[string]string      `json:"BagIt-Profile-Info"`
	BagInfo              map[string]standardTag `json:"Bag-Info"`
}

type standardTag struct {
	Required bool     `json:"required"`
	Values   []string `json:"values,omitempty"`
}

// ImportStandard builds a profile from standard-schema JSON. The profile
// starts from New's defaults, so bagit.txt and bag-info.txt definitions
// are always present; Bag-Info entries mutate a default definition when
// one with the same name exists and append otherwise.
func ImportStandard(data []byte) (*Profile, error) {
	doc, err := jason.NewObjectFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse profile JSON: %v", err)
	}

	identifier := ""
	if info, err := doc.GetObject("BagIt-Profile-Info"); err == nil {
		identifier, _ = info.GetString("BagIt-Profile-Identifier")
	}
	p := New(identifier)
	if identifier == "" {
		p.Name = "Imported profile"
	}
	p.Description = fmt.Sprintf("Imported from %s", identifier)

	if v, err := doc.GetStringArray("Accept-BagIt-Version"); err == nil {
		p.AcceptBagItVersion = v
	}
	if v, err := doc.GetStringArray("Accept-Serialization"); err == nil {
		p.AcceptSerialization = v
	} else {
		p.AcceptSerialization = nil
	}
	if v, err := doc.GetBoolean("Allow-Fetch.txt"); err == nil {
		p.AllowFetchTxt = v
	}
	p.Serialization = SerializationOptional
	if v, err := doc.GetString("Serialization"); err == nil && v != "" {
		p.Serialization = v
	}

	p.ManifestsRequired = stringArrayOr(doc, "Manifests-Required", []string{})
	p.ManifestsAllowed = stringArrayOr(doc, "Manifests-Allowed", digest.Supported())
	p.TagManifestsRequired = stringArrayOr(doc, "Tag-Manifests-Required", []string{})
	p.TagManifestsAllowed = stringArrayOr(doc, "Tag-Manifests-Allowed", digest.Supported())
	p.TagFilesAllowed = stringArrayOr(doc, "Tag-Files-Allowed", []string{"*"})

	if bagInfo, err := doc.GetObject("Bag-Info"); err == nil {
		for name, raw := range bagInfo.Map() {
			def := p.FindTag("bag-info.txt", name)
			if def == nil {
				def = &TagDefinition{TagFile: "bag-info.txt", TagName: name}
				p.Tags = append(p.Tags, def)
			}
			tagObj, err := raw.Object()
			if err != nil {
				continue
			}
			if req, err := tagObj.GetBoolean("required"); err == nil {
				def.Required = req
				def.EmptyOK = !req
			}
			if vals, err := tagObj.GetStringArray("values"); err == nil {
				def.Values = vals
				if len(vals) == 1 {
					def.DefaultValue = vals[0]
				}
			}
		}
	}

	// Tag-Files-Required entries become file-presence-only definitions.
	if files, err := doc.GetStringArray("Tag-Files-Required"); err == nil {
		for _, f := range files {
			if f == "bagit.txt" || f == "bag-info.txt" {
				continue
			}
			if len(p.TagsForFile(f)) == 0 {
				p.Tags = append(p.Tags, &TagDefinition{TagFile: f, Required: true})
			}
		}
	}
	return p, nil
}

func stringArrayOr(doc *jason.Object, key string, fallback []string) []string {
	if v, err := doc.GetStringArray(key); err == nil {
		return v
	}
	return fallback
}

// ExportStandard renders the profile into the standard schema. Two things
// cannot survive the trip:
//
//  1. tags outside bag-info.txt have no home of their own, so a required
//     tag in another file only adds that file to Tag-Files-Required;
//  2. bagit.txt tags are never exported, since the standard schema fixes
//     bagit.txt's content.
func (p *Profile) ExportStandard() ([]byte, error) {
	out := standardProfile{
		AcceptBagItVersion:   p.AcceptBagItVersion,
		AcceptSerialization:  p.AcceptSerialization,
		AllowFetchTxt:        p.AllowFetchTxt,
		Serialization:        p.Serialization,
		ManifestsRequired:    p.ManifestsRequired,
		ManifestsAllowed:     p.ManifestsAllowed,
		TagManifestsRequired: p.TagManifestsRequired,
		TagManifestsAllowed:  p.TagManifestsAllowed,
		TagFilesAllowed:      p.TagFilesAllowed,
		ProfileInfo: map[string]string{
			"BagIt-Profile-Identifier": p.Name,
			"External-Description":     p.Description,
		},
		BagInfo: make(map[string]standardTag),
	}
	for _, t := range p.Tags {
		switch t.TagFile {
		case "bagit.txt":
			// fixed content in the standard schema
		case "bag-info.txt":
			if t.TagName == "" {
				continue
			}
			out.BagInfo[t.TagName] = standardTag{
				Required: t.Required,
				Values:   append([]string(nil), t.Values...),
			}
		default:
			if t.Required && !contains(out.TagFilesRequired, t.TagFile) {
				out.TagFilesRequired = append(out.TagFilesRequired, t.TagFile)
			}
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
