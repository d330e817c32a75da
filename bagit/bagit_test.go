package bagit

import "testing"

func TestParseRole(t *testing.T) {
	table := []struct {
		input string
		role  Role
		alg   string
	}{
		{"data/file.txt", RolePayload, ""},
		{"data/sub dir/x y.bin", RolePayload, ""},
		{"manifest-sha256.txt", RolePayloadManifest, "sha256"},
		{"manifest-MD5.txt", RolePayloadManifest, "md5"}, // algorithm comes back lowercased
		{"tagmanifest-md5.txt", RoleTagManifest, "md5"},
		{"bagit.txt", RoleTag, ""},
		{"bag-info.txt", RoleTag, ""},
		{"fetch.txt", RoleTag, ""},
		{"custom/tags.txt", RoleTag, ""},
		{"manifest-sha256.txt.bak", RoleTag, ""},
	}
	for _, tab := range table {
		role, alg := ParseRole(tab.input)
		if role != tab.role || alg != tab.alg {
			t.Errorf("ParseRole(%q) = (%v, %q), expected (%v, %q)",
				tab.input, role, alg, tab.role, tab.alg)
		}
	}
}

func TestOxum(t *testing.T) {
	o, err := ParseOxum("12345.7")
	if err != nil {
		t.Fatalf("ParseOxum() error %s", err.Error())
	}
	if o.Bytes != 12345 || o.Count != 7 {
		t.Errorf("ParseOxum() = %+v", o)
	}
	if o.String() != "12345.7" {
		t.Errorf("String() = %s", o.String())
	}
	for _, bad := range []string{"", "12345", "a.b", "1.x"} {
		if _, err := ParseOxum(bad); err == nil {
			t.Errorf("ParseOxum(%q) succeeded, expected error", bad)
		}
	}
}

func TestTagList(t *testing.T) {
	l := NewTagList()
	l.Add("Contact-Name", "A")
	l.Add("Source-Organization", "SFU")
	l.Add("Contact-Name", "B")

	if v, ok := l.First("Contact-Name"); !ok || v != "A" {
		t.Errorf("First() = %q, %v", v, ok)
	}
	if all := l.All("Contact-Name"); len(all) != 2 || all[1] != "B" {
		t.Errorf("All() = %v", all)
	}
	keys := l.Keys()
	if len(keys) != 2 || keys[0] != "Contact-Name" || keys[1] != "Source-Organization" {
		t.Errorf("Keys() = %v", keys)
	}
	if l.Has("Missing") {
		t.Errorf("Has(Missing) = true")
	}
}
