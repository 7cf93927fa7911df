// Package catalog holds the static marker taxonomy, the marker profiles,
// the genre prompts and the consent levels offered by the collection form.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Namespace prefixes every marker and profile id.
const Namespace = "LA:"

//go:embed catalog.yaml
var defaultYAML []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

// Marker is one entry of the taxonomy. Other components refer to it by ID.
type Marker struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
	Group       string `yaml:"-" json:"group"`
}

// Group is a titled section of the taxonomy.
type Group struct {
	Name    string   `yaml:"name" json:"name"`
	Markers []Marker `yaml:"markers" json:"markers"`
}

// Profile is a named bundle of markers expected to co-occur in a genre.
type Profile struct {
	ID          string   `yaml:"id" json:"id"`
	Description string   `yaml:"description" json:"description"`
	Markers     []string `yaml:"markers" json:"markers"`
}

// Genre lists the elicitation prompts offered for one genre.
type Genre struct {
	Name    string   `yaml:"name" json:"name"`
	Prompts []string `yaml:"prompts" json:"prompts"`
}

type file struct {
	Groups        []Group   `yaml:"groups"`
	Profiles      []Profile `yaml:"profiles"`
	Genres        []Genre   `yaml:"genres"`
	ConsentLevels []string  `yaml:"consent_levels"`
}

// Catalog is immutable once loaded and safe for concurrent use.
type Catalog struct {
	groups   []Group
	markers  []Marker
	byID     map[string]int
	profiles []Profile
	profByID map[string]int
	genres   []Genre
	consent  []string
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(bytes.NewReader(defaultYAML))
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a catalog from YAML. Marker ids must be unique. Profile marker
// lists may omit the namespace prefix.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{
		byID:     make(map[string]int),
		profByID: make(map[string]int),
		genres:   f.Genres,
		consent:  f.ConsentLevels,
	}

	for gi := range f.Groups {
		g := &f.Groups[gi]
		if g.Name == "" {
			return nil, fmt.Errorf("%w: group %d has no name", ErrInvalidCatalog, gi+1)
		}
		for mi := range g.Markers {
			m := &g.Markers[mi]
			m.ID = strings.TrimSpace(m.ID)
			m.Group = g.Name
			if m.ID == "" {
				return nil, fmt.Errorf("%w: marker without id in group %q", ErrInvalidCatalog, g.Name)
			}
			if _, dup := c.byID[m.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate marker %s", ErrInvalidCatalog, m.ID)
			}
			c.byID[m.ID] = len(c.markers)
			c.markers = append(c.markers, *m)
		}
	}
	c.groups = f.Groups

	for pi := range f.Profiles {
		p := f.Profiles[pi]
		if p.ID == "" {
			return nil, fmt.Errorf("%w: profile %d has no id", ErrInvalidCatalog, pi+1)
		}
		if _, dup := c.profByID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %s", ErrInvalidCatalog, p.ID)
		}
		for i, id := range p.Markers {
			p.Markers[i] = Normalize(id)
		}
		c.profByID[p.ID] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}

	return c, nil
}

// Normalize trims id and adds the namespace prefix when it is missing.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, Namespace) {
		return id
	}
	return Namespace + id
}

func (c *Catalog) Marker(id string) (Marker, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Marker{}, false
	}
	return c.markers[i], true
}

func (c *Catalog) HasMarker(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Markers returns all markers in taxonomy order.
func (c *Catalog) Markers() []Marker {
	return append([]Marker(nil), c.markers...)
}

func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		out[i] = Group{Name: g.Name, Markers: append([]Marker(nil), g.Markers...)}
	}
	return out
}

func (c *Catalog) Profile(id string) (Profile, bool) {
	i, ok := c.profByID[id]
	if !ok {
		return Profile{}, false
	}
	p := c.profiles[i]
	p.Markers = append([]string(nil), p.Markers...)
	return p, true
}

func (c *Catalog) Profiles() []Profile {
	out := make([]Profile, len(c.profiles))
	for i, p := range c.profiles {
		p.Markers = append([]string(nil), p.Markers...)
		out[i] = p
	}
	return out
}

func (c *Catalog) Genre(name string) (Genre, bool) {
	for _, g := range c.genres {
		if g.Name == name {
			return Genre{Name: g.Name, Prompts: append([]string(nil), g.Prompts...)}, true
		}
	}
	return Genre{}, false
}

func (c *Catalog) Genres() []Genre {
	out := make([]Genre, len(c.genres))
	for i, g := range c.genres {
		out[i] = Genre{Name: g.Name, Prompts: append([]string(nil), g.Prompts...)}
	}
	return out
}

func (c *Catalog) ConsentLevels() []string {
	return append([]string(nil), c.consent...)
}

// HasConsentLevel reports whether level is one of the configured levels.
func (c *Catalog) HasConsentLevel(level string) bool {
	for _, l := range c.consent {
		if l == level {
			return true
		}
	}
	return false
}

// UnknownMarkers returns the ids not present in the taxonomy, in input
// order and without duplicates.
func (c *Catalog) UnknownMarkers(ids []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if c.HasMarker(id) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
