package digest

import (
	"bytes"
	"testing"
)

func TestWriterSums(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, []string{"md5", "sha256", "md5"})
	w.Write([]byte("hello "))
	w.Write([]byte("world"))
	sums := w.Sums()
	table := []struct {
		alg, want string
	}{
		{"md5", "5eb63bbbe01eeed093cb22bb8f5acdc3"},
		{"sha256", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	for _, tab := range table {
		if sums[tab.alg] != tab.want {
			t.Errorf("Sums()[%s] = %s, expected %s", tab.alg, sums[tab.alg], tab.want)
		}
	}
	if len(sums) != 2 {
		t.Errorf("len(Sums()) = %d, expected 2", len(sums))
	}
	if out.String() != "hello world" {
		t.Errorf("passthrough = %q, expected %q", out.String(), "hello world")
	}
}

func TestWriterNilSink(t *testing.T) {
	w := NewWriter(nil, []string{"sha1"})
	w.Write([]byte("abc"))
	want := "a9993e364706816aba3e25717850c26c9cd0d89d"
	if got := w.Sums()["sha1"]; got != want {
		t.Errorf("sha1 = %s, expected %s", got, want)
	}
}

func TestStrongest(t *testing.T) {
	table := []struct {
		input  []string
		output string
	}{
		{[]string{"md5", "sha1"}, "sha1"},
		{[]string{"sha384", "sha256"}, "sha256"},
		{[]string{"md5", "sha512", "sha256"}, "sha512"},
		{[]string{"crc32"}, ""},
		{nil, ""},
	}
	for _, tab := range table {
		if got := Strongest(tab.input); got != tab.output {
			t.Errorf("Strongest(%v) = %q, expected %q", tab.input, got, tab.output)
		}
	}
}

func TestNewPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("New(crc32) did not panic")
		}
	}()
	New("crc32")
}

func TestSupported(t *testing.T) {
	want := []string{"md5", "sha1", "sha224", "sha256", "sha384", "sha512"}
	got := Supported()
	if len(got) != len(want) {
		t.Fatalf("Supported() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Supported()[%d] = %s, expected %s", i, got[i], want[i])
		}
	}
}
