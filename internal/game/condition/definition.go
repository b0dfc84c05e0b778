// Package condition provides the 5e condition catalog and the per-combatant
// condition tracker.
package condition

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies a condition.
type Kind string

const (
	Blinded       Kind = "blinded"
	Charmed       Kind = "charmed"
	Deafened      Kind = "deafened"
	Exhaustion    Kind = "exhaustion"
	Frightened    Kind = "frightened"
	Grappled      Kind = "grappled"
	Incapacitated Kind = "incapacitated"
	Invisible     Kind = "invisible"
	Paralyzed     Kind = "paralyzed"
	Petrified     Kind = "petrified"
	Poisoned      Kind = "poisoned"
	Prone         Kind = "prone"
	Restrained    Kind = "restrained"
	Stunned       Kind = "stunned"
	Unconscious   Kind = "unconscious"
)

// Kinds lists every condition kind in catalog order.
var Kinds = []Kind{
	Blinded, Charmed, Deafened, Exhaustion, Frightened, Grappled, Incapacitated,
	Invisible, Paralyzed, Petrified, Poisoned, Prone, Restrained, Stunned, Unconscious,
}

// MaxExhaustion is the highest exhaustion level; level 6 is death.
const MaxExhaustion = 6

// NoEffectInfo is returned by Catalog.Effects when a definition lists no effects.
const NoEffectInfo = "No information available on the effects of this condition"

// ParseKind resolves a case-insensitive condition name.
//
// Postcondition: Returns (kind, true) for a known kind, or ("", false).
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Def is the static definition of a condition, loaded from YAML.
type Def struct {
	Kind    Kind     `yaml:"kind"`
	Label   string   `yaml:"label"`
	Effects []string `yaml:"effects"`
	// Levels holds the per-level description for exhaustion; empty for other kinds.
	Levels map[int]string `yaml:"levels"`
}

// Catalog holds the definition of every condition kind.
type Catalog struct {
	defs map[Kind]*Def
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Conditions []*Def `yaml:"conditions"`
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[Kind]*Def)}
}

// Default returns a Catalog populated from the embedded 5e definitions.
//
// Postcondition: The returned catalog passes Validate.
func Default() *Catalog {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(defaultCatalogYAML))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		panic("condition: embedded catalog is invalid: " + err.Error())
	}
	c := NewCatalog()
	for _, d := range f.Conditions {
		c.Register(d)
	}
	return c
}

// Register adds def to the catalog, overwriting any existing entry with the same kind.
// Precondition: def must not be nil and def.Kind must not be empty.
func (c *Catalog) Register(def *Def) {
	c.defs[def.Kind] = def
}

// Get returns the Def for kind, or (nil, false) if not found.
func (c *Catalog) Get(kind Kind) (*Def, bool) {
	d, ok := c.defs[kind]
	return d, ok
}

// Label returns the display label for kind, falling back to the kind itself.
func (c *Catalog) Label(kind Kind) string {
	if d, ok := c.defs[kind]; ok && d.Label != "" {
		return d.Label
	}
	return string(kind)
}

// All returns the registered definitions in Kinds order.
func (c *Catalog) All() []*Def {
	out := make([]*Def, 0, len(c.defs))
	for _, k := range Kinds {
		if d, ok := c.defs[k]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Effects returns the rules effects of kind. For Exhaustion the effects are
// cumulative: level n yields the descriptions of levels 1..n, with level first
// clamped to [1, MaxExhaustion]. Other kinds ignore level.
//
// Postcondition: Returns a non-empty slice the caller may modify.
func (c *Catalog) Effects(kind Kind, level int) []string {
	d, ok := c.defs[kind]
	if !ok {
		return []string{NoEffectInfo}
	}
	if kind == Exhaustion {
		return d.exhaustionEffects(level)
	}
	if len(d.Effects) == 0 {
		return []string{NoEffectInfo}
	}
	out := make([]string, len(d.Effects))
	copy(out, d.Effects)
	return out
}

func (d *Def) exhaustionEffects(level int) []string {
	level = ClampExhaustion(level)
	if level < 1 {
		level = 1
	}
	out := make([]string, 0, level)
	for i := 1; i <= level; i++ {
		out = append(out, d.Levels[i])
	}
	return out
}

// Validate checks that every kind is defined and that exhaustion describes all levels.
//
// Postcondition: Returns nil if the catalog is complete, or an error listing every gap.
func (c *Catalog) Validate() error {
	var errs []string
	for _, k := range Kinds {
		d, ok := c.defs[k]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing condition %q", k))
			continue
		}
		if d.Label == "" {
			errs = append(errs, fmt.Sprintf("condition %q has no label", k))
		}
	}
	if d, ok := c.defs[Exhaustion]; ok {
		for i := 1; i <= MaxExhaustion; i++ {
			if d.Levels[i] == "" {
				errs = append(errs, fmt.Sprintf("exhaustion level %d has no description", i))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid condition catalog: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadDirectory starts from the Default catalog and overrides it with every
// *.yaml file in dir, each holding a single Def.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a validated Catalog, or an error if any file fails to
// parse, names an unknown kind, or leaves the catalog incomplete.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	c := Default()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if _, ok := ParseKind(string(def.Kind)); !ok {
			return nil, fmt.Errorf("parsing %q: unknown condition kind %q", path, def.Kind)
		}
		c.Register(&def)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ClampExhaustion clamps level to [0, MaxExhaustion].
func ClampExhaustion(level int) int {
	switch {
	case level < 0:
		return 0
	case level > MaxExhaustion:
		return MaxExhaustion
	default:
		return level
	}
}
