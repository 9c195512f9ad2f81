// Package profile loads rule profiles: classifier metadata, the policy for
// the built-in text checks, the fact schema and condition rules.
package profile

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/clausewise/internal/model"
)

// DefaultID is the id of the built-in general contract profile
const DefaultID = "general"

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Store provides read-only access to loaded profiles
type Store interface {
	// Profiles returns all profiles in declaration order
	Profiles() []*model.Profile
	Get(id string) (*model.Profile, bool)
}

// MemoryStore is a Store over a fixed set of profiles
type MemoryStore struct {
	profiles []*model.Profile
	byID     map[string]*model.Profile
}

// NewMemoryStore builds a store. Ids must be present and unique.
func NewMemoryStore(profiles ...*model.Profile) (*MemoryStore, error) {
	s := &MemoryStore{byID: make(map[string]*model.Profile, len(profiles))}
	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("profile without id")
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		s.byID[p.ID] = p
		s.profiles = append(s.profiles, p)
	}
	return s, nil
}

func (s *MemoryStore) Profiles() []*model.Profile {
	return append([]*model.Profile(nil), s.profiles...)
}

func (s *MemoryStore) Get(id string) (*model.Profile, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Parse decodes one YAML profile. Unknown fields are rejected. A profile
// without a policy section gets model.DefaultPolicy().
func Parse(data []byte) (*model.Profile, error) {
	var p model.Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	var peek struct {
		Policy *yaml.Node `yaml:"policy"`
	}
	if err := yaml.Unmarshal(data, &peek); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if peek.Policy == nil {
		p.Policy = model.DefaultPolicy()
	}
	return &p, nil
}

// LoadFile reads a single profile file
func LoadFile(filename string) (*model.Profile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return p, nil
}

// LoadDir reads every *.yaml and *.yml file in dir, in lexical filename order
func LoadDir(dir string) (*MemoryStore, error) {
	return loadFS(os.DirFS(dir), ".")
}

// Builtin returns the profiles shipped with the binary
func Builtin() *MemoryStore {
	return builtin()
}

var builtin = sync.OnceValue(func() *MemoryStore {
	s, err := loadFS(builtinFS, "builtin")
	if err != nil {
		panic(err)
	}
	return s
})

// Default returns the built-in general contract profile
func Default() *model.Profile {
	p, _ := Builtin().Get(DefaultID)
	return p
}

func loadFS(fsys fs.FS, dir string) (*MemoryStore, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(path.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var profiles []*model.Profile
	var errs []error
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		p, err := Parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		profiles = append(profiles, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return NewMemoryStore(profiles...)
}
