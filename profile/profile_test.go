package profile

import (
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestNewProfileIsValid(t *testing.T) {
	p := New("test")
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %s, expected nil", err.Error())
	}
}

func TestBuiltinIsValid(t *testing.T) {
	for _, p := range Builtins() {
		if err := p.Validate(); err != nil {
			t.Errorf("builtin %s: Validate() = %s", p.Name, err.Error())
		}
		if !p.IsBuiltIn {
			t.Errorf("builtin %s does not have IsBuiltIn set", p.Name)
		}
	}
}

func TestValidateFindsEverything(t *testing.T) {
	p := New("")
	p.ID = ""
	p.AcceptBagItVersion = nil
	p.ManifestsAllowed = nil
	p.ManifestsRequired = []string{"sha256"}
	p.Serialization = "sometimes"
	p.Tags = nil

	err := p.Validate()
	if err == nil {
		t.Fatalf("Validate() = nil, expected errors")
	}
	msgs := make([]string, 0)
	for _, e := range multierr.Errors(err) {
		msgs = append(msgs, e.Error())
	}
	wantSubstrings := []string{
		"missing an id",
		"missing a name",
		"BagIt version",
		"at least one manifest algorithm",
		"sha256",
		"serialization must be one of",
		"bagit.txt",
		"bag-info.txt",
	}
	joined := strings.Join(msgs, "; ")
	for _, want := range wantSubstrings {
		if !strings.Contains(joined, want) {
			t.Errorf("errors missing %q in %s", want, joined)
		}
	}
}

func TestValidateUserValueEnumeration(t *testing.T) {
	p := New("test")
	def := p.FindTag("bag-info.txt", "Source-Organization")
	def.Values = []string{"Simon Fraser University", "York University"}
	def.UserValue = "Acme"
	if err := p.Validate(); err == nil {
		t.Fatalf("Validate() = nil, expected enumeration error")
	}
	def.UserValue = "York University"
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %s, expected nil", err.Error())
	}
}

func TestClone(t *testing.T) {
	p := BuiltinDefault()
	c := p.Clone()
	if c.ID == p.ID {
		t.Errorf("Clone() kept the same id")
	}
	if c.IsBuiltIn {
		t.Errorf("Clone() kept IsBuiltIn")
	}
	c.Tags[0].DefaultValue = "changed"
	if p.Tags[0].DefaultValue == "changed" {
		t.Errorf("Clone() shares tag definitions with the original")
	}
	c.ManifestsRequired = append(c.ManifestsRequired, "md5")
	if len(p.ManifestsRequired) == len(c.ManifestsRequired) {
		t.Errorf("Clone() shares slices with the original")
	}
}

func TestTagLookups(t *testing.T) {
	p := New("test")
	if def := p.FindTag("bagit.txt", "BagIt-Version"); def == nil {
		t.Fatalf("FindTag(bagit.txt, BagIt-Version) = nil")
	}
	if def := p.FindTag("bagit.txt", "Nope"); def != nil {
		t.Errorf("FindTag() found a tag that does not exist")
	}
	names := p.TagFileNames()
	if len(names) != 2 || names[0] != "bagit.txt" || names[1] != "bag-info.txt" {
		t.Errorf("TagFileNames() = %v", names)
	}
	if defs := p.TagsForFile("bag-info.txt"); len(defs) != 3 {
		t.Errorf("TagsForFile(bag-info.txt) returned %d definitions", len(defs))
	}
}

func TestGetValue(t *testing.T) {
	def := &TagDefinition{DefaultValue: "dflt"}
	if def.GetValue() != "dflt" {
		t.Errorf("GetValue() = %q", def.GetValue())
	}
	def.UserValue = "mine"
	if def.GetValue() != "mine" {
		t.Errorf("GetValue() = %q", def.GetValue())
	}
}
