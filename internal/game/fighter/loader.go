package fighter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// fighterFile is the on-disk YAML schema for a single fighter.
// Order controls the display position; ties fall back to file name.
type fighterFile struct {
	Fighter `yaml:",inline"`
	Order   int `yaml:"order"`
}

// LoadFighterFromBytes parses and validates a single fighter YAML document.
//
// Postcondition: Returns a valid Fighter and its display order, or a non-nil error.
func LoadFighterFromBytes(data []byte) (Fighter, int, error) {
	var ff fighterFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return Fighter{}, 0, fmt.Errorf("parsing fighter: %w", err)
	}
	if err := ff.Fighter.Validate(); err != nil {
		return Fighter{}, 0, err
	}
	return ff.Fighter, ff.Order, nil
}

// LoadFighters reads every .yaml/.yml file in dir as a fighter.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns fighters sorted by (order, file name), or a non-nil error
// naming the offending file.
func LoadFighters(dir string) ([]Fighter, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	type entry struct {
		f     Fighter
		order int
		path  string
	}
	entries := make([]entry, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		f, order, err := LoadFighterFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading fighter file %s: %w", path, err)
		}
		entries = append(entries, entry{f: f, order: order, path: path})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].path < entries[j].path
	})

	fighters := make([]Fighter, len(entries))
	for i, e := range entries {
		fighters[i] = e.f
	}
	return fighters, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isRosterFile(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func isRosterFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// DirRoster is a MemoryRoster loaded from a directory of fighter YAML files.
type DirRoster struct {
	*MemoryRoster
	dir string
}

// NewDirRoster loads every fighter in dir.
//
// Precondition: dir must be a readable directory containing at least one valid fighter.
// Postcondition: Returns a populated DirRoster or a non-nil error.
func NewDirRoster(dir string) (*DirRoster, error) {
	fighters, err := LoadFighters(dir)
	if err != nil {
		return nil, err
	}
	if len(fighters) == 0 {
		return nil, fmt.Errorf("roster directory %s contains no fighters", dir)
	}
	mem, err := NewMemoryRoster(fighters)
	if err != nil {
		return nil, err
	}
	return &DirRoster{MemoryRoster: mem, dir: dir}, nil
}

// Dir returns the directory backing this roster.
func (d *DirRoster) Dir() string { return d.dir }

// Reload re-reads the directory. On any error the current roster is kept.
//
// Postcondition: Returns the new fighter count, or an error and the roster is unchanged.
func (d *DirRoster) Reload() (int, error) {
	fighters, err := LoadFighters(d.dir)
	if err != nil {
		return 0, err
	}
	if len(fighters) == 0 {
		return 0, fmt.Errorf("roster directory %s contains no fighters", d.dir)
	}
	if err := d.Replace(fighters); err != nil {
		return 0, err
	}
	return len(fighters), nil
}
