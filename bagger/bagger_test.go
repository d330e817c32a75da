package bagger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sulibs/bagit/bagit"
	"github.com/sulibs/bagit/events"
	"github.com/sulibs/bagit/profile"
	"github.com/sulibs/bagit/validator"
)

func writeSources(t *testing.T) []Source {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"one.txt":        "hello\n",
		"sub/two.txt":    "world, again\n",
		"with space.bin": "binary-ish content",
	}
	var sources []Source
	for rel, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0775); err != nil {
			t.Fatalf("MkdirAll() error %s", err.Error())
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error %s", err.Error())
		}
		sources = append(sources, Source{AbsPath: abs, Dest: rel})
	}
	return sources
}

func testProfile() *profile.Profile {
	p := profile.New("test")
	p.ManifestsRequired = []string{"sha256"}
	p.TagManifestsRequired = []string{"sha256"}
	return p
}

// Writing a bag and validating it against the same profile should report
// nothing wrong.
func TestBagDirectoryRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mybag")
	p := testProfile()
	b := New(out, p, writeSources(t), events.Config{}, nil)
	b.SetTag("bag-info.txt", "Source-Organization", "York University")
	if problems := b.Run(context.Background()); len(problems) != 0 {
		t.Fatalf("Run() problems: %v", problems)
	}
	if b.Oxum().Count != 3 {
		t.Errorf("Oxum().Count = %d, expected 3", b.Oxum().Count)
	}

	v := validator.New(out, p, events.Config{}, nil)
	if problems := v.Validate(context.Background()); len(problems) != 0 {
		t.Fatalf("Validate() of fresh bag: %v", problems)
	}
}

func TestBagTarRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mybag.tar")
	p := testProfile()
	p.TarDirMustMatchName = true
	b := New(out, p, writeSources(t), events.Config{}, nil)
	if problems := b.Run(context.Background()); len(problems) != 0 {
		t.Fatalf("Run() problems: %v", problems)
	}

	v := validator.New(out, p, events.Config{}, nil)
	if problems := v.Validate(context.Background()); len(problems) != 0 {
		t.Fatalf("Validate() of fresh tar bag: %v", problems)
	}
}

// Identical inputs in identical order must produce byte-identical
// manifests.
func TestDeterministicManifests(t *testing.T) {
	sources := writeSources(t)
	p := testProfile()
	tmp := t.TempDir()
	var manifests [2][]byte
	for i := range manifests {
		out := filepath.Join(tmp, "bag"+string(rune('a'+i)))
		b := New(out, p, sources, events.Config{}, nil)
		if problems := b.Run(context.Background()); len(problems) != 0 {
			t.Fatalf("Run() problems: %v", problems)
		}
		data, err := os.ReadFile(filepath.Join(out, "manifest-sha256.txt"))
		if err != nil {
			t.Fatalf("ReadFile() error %s", err.Error())
		}
		manifests[i] = data
	}
	if string(manifests[0]) != string(manifests[1]) {
		t.Errorf("manifests differ:\n%s\n%s", manifests[0], manifests[1])
	}
}

func TestMissingSource(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mybag")
	sources := []Source{{AbsPath: filepath.Join(t.TempDir(), "ghost"), Dest: "ghost"}}
	b := New(out, testProfile(), sources, events.Config{}, nil)
	problems := b.Run(context.Background())
	if len(problems) != 1 || problems[0].Kind != bagit.KindBaggerSourceMissing {
		t.Fatalf("Run() = %v, expected one bagger-source-missing", problems)
	}
}

func TestRequiredTagValueMissing(t *testing.T) {
	p := testProfile()
	p.Tags = append(p.Tags, &profile.TagDefinition{
		TagFile: "bag-info.txt", TagName: "Contact-Name", Required: true,
	})
	out := filepath.Join(t.TempDir(), "mybag")
	b := New(out, p, writeSources(t), events.Config{}, nil)
	problems := b.Run(context.Background())
	if len(problems) != 1 || problems[0].Kind != bagit.KindTagMissing {
		t.Fatalf("Run() = %v, expected one tag-missing", problems)
	}

	// supplying the value through the job clears the problem
	b = New(out, p, writeSources(t), events.Config{}, nil)
	b.SetTag("bag-info.txt", "Contact-Name", "A. Person")
	if problems := b.Run(context.Background()); len(problems) != 0 {
		t.Fatalf("Run() with value set: %v", problems)
	}
	v := validator.New(out, p, events.Config{}, nil)
	if problems := v.Validate(context.Background()); len(problems) != 0 {
		t.Fatalf("Validate(): %v", problems)
	}
}

func TestChooseManifestAlgorithms(t *testing.T) {
	table := []struct {
		manifests, tagManifests, allowed []string
		want                             string
	}{
		{[]string{"md5", "sha256"}, []string{"sha256"}, nil, "sha256"},
		{[]string{"md5"}, []string{"sha256"}, nil, "md5"},
		{nil, []string{"sha1"}, nil, "sha1"},
		{nil, nil, []string{"md5", "sha256"}, "sha256"},
		{nil, nil, []string{"md5", "sha1"}, "sha1"},
		{nil, nil, nil, "sha512"},
	}
	for i, tab := range table {
		p := profile.New("chooser")
		p.ManifestsRequired = tab.manifests
		p.TagManifestsRequired = tab.tagManifests
		p.ManifestsAllowed = tab.allowed
		got := ChooseManifestAlgorithms(p)
		if len(got) != 1 || got[0] != tab.want {
			t.Errorf("case %d: ChooseManifestAlgorithms() = %v, expected [%s]", i, got, tab.want)
		}
	}
}

func TestTagFolding(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mybag")
	p := testProfile()
	b := New(out, p, writeSources(t), events.Config{}, nil)
	b.SetTag("bag-info.txt", "Internal-Sender-Description", "line one\nline two")
	if problems := b.Run(context.Background()); len(problems) != 0 {
		t.Fatalf("Run() problems: %v", problems)
	}
	data, err := os.ReadFile(filepath.Join(out, "bag-info.txt"))
	if err != nil {
		t.Fatalf("ReadFile() error %s", err.Error())
	}
	want := "Internal-Sender-Description: line one\n line two\n"
	if !strings.Contains(string(data), want) {
		t.Errorf("bag-info.txt = %q, expected to contain %q", string(data), want)
	}

	v := validator.New(out, p, events.Config{}, nil)
	if problems := v.Validate(context.Background()); len(problems) != 0 {
		t.Fatalf("Validate(): %v", problems)
	}
}
