package bestiary

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LocalSource serves stat blocks from YAML files, one monster per file.
type LocalSource struct {
	byIndex map[string]Detail
}

// NewLocalSource builds a LocalSource from already-parsed stat blocks.
func NewLocalSource(details ...Detail) *LocalSource {
	s := &LocalSource{byIndex: make(map[string]Detail, len(details))}
	for _, d := range details {
		if d.Index == "" {
			d.Index = indexFor(d.Name)
		}
		s.byIndex[d.Index] = d
	}
	return s
}

// LoadLocalSource reads every *.yaml file in dir. A missing index defaults
// to the lower-cased, hyphenated name.
//
// Precondition: dir must be a readable directory.
func LoadLocalSource(dir string) (*LocalSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading bestiary dir %s: %w", dir, err)
	}
	var details []Detail
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		var d Detail
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("%s: name must not be empty", path)
		}
		details = append(details, d)
	}
	return NewLocalSource(details...), nil
}

func indexFor(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// Search returns monsters whose name contains name, case-insensitively,
// sorted by name.
func (s *LocalSource) Search(_ context.Context, name string) ([]Summary, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	var out []Summary
	for _, d := range s.byIndex {
		if strings.Contains(strings.ToLower(d.Name), q) {
			out = append(out, Summary{Index: d.Index, Name: d.Name, URL: monstersPath + d.Index})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Fetch returns the stat block for an index or "/api/monsters/<index>" path.
func (s *LocalSource) Fetch(_ context.Context, id string) (Detail, error) {
	d, ok := s.byIndex[strings.TrimPrefix(id, monstersPath)]
	if !ok {
		return Detail{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return d, nil
}
