package profile

import (
	"testing"

	"github.com/sulibs/bagit/store"
)

func TestRepository(t *testing.T) {
	repo := NewRepository(store.NewMemory())
	if err := repo.EnsureBuiltins(); err != nil {
		t.Fatalf("EnsureBuiltins() error %s", err.Error())
	}
	// a second call must not duplicate or fail
	if err := repo.EnsureBuiltins(); err != nil {
		t.Fatalf("EnsureBuiltins() again: %s", err.Error())
	}

	p := New("mine")
	p.Description = "custom profile"
	if err := repo.Save(p); err != nil {
		t.Fatalf("Save() error %s", err.Error())
	}

	got, err := repo.Get(p.ID)
	if err != nil {
		t.Fatalf("Get() error %s", err.Error())
	}
	if got.Name != "mine" || got.Description != "custom profile" {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.Tags) != len(p.Tags) {
		t.Errorf("Get() returned %d tags, expected %d", len(got.Tags), len(p.Tags))
	}

	// saving again overwrites
	p.Description = "updated"
	if err := repo.Save(p); err != nil {
		t.Fatalf("second Save() error %s", err.Error())
	}
	got, _ = repo.Get(p.ID)
	if got.Description != "updated" {
		t.Errorf("Description = %q after update", got.Description)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("List() error %s", err.Error())
	}
	if len(all) != len(Builtins())+1 {
		t.Errorf("List() returned %d profiles, expected %d", len(all), len(Builtins())+1)
	}

	if err := repo.Delete(DefaultProfileID); err == nil {
		t.Errorf("Delete() of a built-in succeeded")
	}
	if err := repo.Delete(p.ID); err != nil {
		t.Errorf("Delete() error %s", err.Error())
	}
	if _, err := repo.Get(p.ID); err == nil {
		t.Errorf("Get() found a deleted profile")
	}
}
