package profile

// Built-in profiles ship with the tool. Their IDs are fixed so a
// repository can recognize them across runs, and IsBuiltIn blocks
// deletion.

// DefaultProfileID is the id of the stock BagIt profile.
const DefaultProfileID = "24d46a49-e9e4-4b8b-a049-7e0bd2415baa"

// BuiltinDefault returns the stock profile: ordinary BagIt with a sha512
// payload manifest and no restrictions beyond the spec's own.
func BuiltinDefault() *Profile {
	p := New("bagit-default")
	p.ID = DefaultProfileID
	p.IsBuiltIn = true
	p.Description = "Standard BagIt bag with a sha512 payload manifest."
	p.ManifestsRequired = []string{"sha512"}
	p.AllowFetchTxt = true
	for _, t := range p.Tags {
		t.IsBuiltIn = true
	}
	return p
}

// Builtins lists every profile shipped with the tool.
func Builtins() []*Profile {
	return []*Profile{BuiltinDefault()}
}
