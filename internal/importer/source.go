package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// Entry is one fighter ready for import together with its display order.
type Entry struct {
	Fighter fighter.Fighter
	Order   int
}

// Source loads roster entries from a format-specific location.
//
// Precondition: path must exist and match the source's layout.
// Postcondition: returns entries in display order, or a non-nil error.
type Source interface {
	Load(path string) ([]Entry, error)
}

// DirSource reads a directory of per-fighter YAML files, the layout used by
// fighter.DirRoster.
type DirSource struct{}

// NewDirSource returns a DirSource.
func NewDirSource() *DirSource { return &DirSource{} }

// Load implements Source. Orders are assigned from the directory's sort order
// starting at 1.
func (DirSource) Load(dir string) ([]Entry, error) {
	fighters, err := fighter.LoadFighters(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(fighters))
	for i, f := range fighters {
		entries[i] = Entry{Fighter: f, Order: i + 1}
	}
	return entries, nil
}

// manifest is a single-file roster: a list of fighters in display order.
type manifest struct {
	Fighters []manifestFighter `yaml:"fighters"`
}

type manifestFighter struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	Health  float64 `yaml:"health"`
	Attack  float64 `yaml:"attack"`
	Defense float64 `yaml:"defense"`
	Source  string  `yaml:"source"`
}

// ManifestSource reads one YAML file holding a `fighters:` list. Entries
// without an id get one derived from their name.
type ManifestSource struct{}

// NewManifestSource returns a ManifestSource.
func NewManifestSource() *ManifestSource { return &ManifestSource{} }

// Load implements Source.
func (ManifestSource) Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	entries := make([]Entry, 0, len(m.Fighters))
	for i, mf := range m.Fighters {
		id := mf.ID
		if id == "" {
			id = NameToID(mf.Name)
		}
		entries = append(entries, Entry{
			Fighter: fighter.Fighter{
				ID:      id,
				Name:    mf.Name,
				Health:  mf.Health,
				Attack:  mf.Attack,
				Defense: mf.Defense,
				Source:  mf.Source,
			},
			Order: i + 1,
		})
	}
	return entries, nil
}
