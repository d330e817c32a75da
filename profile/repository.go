package profile

import (
	"encoding/json"
	"fmt"

	"github.com/sulibs/bagit/store"
)

// A Repository persists profiles as JSON values in a store.Store, keyed by
// profile id. The engine itself never touches the repository; it belongs
// to the hosting application.
type Repository struct {
	s store.Store
}

// NewRepository returns a repository backed by s.
func NewRepository(s store.Store) *Repository {
	return &Repository{s: s}
}

// Save writes the profile, replacing any existing value for its id.
func (r *Repository) Save(p *Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile has no id")
	}
	err := r.s.Delete(p.ID)
	if err != nil {
		return err
	}
	w, err := r.s.Create(p.ID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	err = enc.Encode(p)
	cerr := w.Close()
	if err == nil {
		err = cerr
	}
	return err
}

// Get loads the profile with the given id.
func (r *Repository) Get(id string) (*Profile, error) {
	rc, _, err := r.s.Open(id)
	if err != nil {
		return nil, err
	}
	p := &Profile{}
	dec := json.NewDecoder(rc)
	err = dec.Decode(p)
	cerr := rc.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List loads every stored profile.
func (r *Repository) List() ([]*Profile, error) {
	keys, err := r.s.List()
	if err != nil {
		return nil, err
	}
	var profiles []*Profile
	for _, key := range keys {
		p, err := r.Get(key)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Delete removes the profile with the given id. Built-in profiles refuse
// deletion.
func (r *Repository) Delete(id string) error {
	p, err := r.Get(id)
	if err != nil {
		return err
	}
	if p.IsBuiltIn {
		return fmt.Errorf("profile %s is built in and cannot be deleted", p.Name)
	}
	return r.s.Delete(id)
}

// EnsureBuiltins saves any built-in profile not yet in the repository.
func (r *Repository) EnsureBuiltins() error {
	for _, p := range Builtins() {
		if _, err := r.Get(p.ID); err == nil {
			continue
		}
		if err := r.Save(p); err != nil {
			return err
		}
	}
	return nil
}
