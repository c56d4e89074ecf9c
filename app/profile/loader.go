package profile

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultProfileData []byte

var (
	defaultProfile     *Profile
	defaultProfileOnce sync.Once
)

// Default returns the built-in extraction profile.
func Default() *Profile {
	defaultProfileOnce.Do(func() {
		var p Profile
		if err := yaml.Unmarshal(defaultProfileData, &p); err != nil {
			panic(fmt.Sprintf("malformed embedded default profile: %v", err))
		}
		p.Name = "default"
		defaultProfile = &p
	})
	return defaultProfile
}

// Loader handles loading and validation of extraction profiles
type Loader struct {
	profilesDir string
}

// NewLoader creates a new profile loader
func NewLoader(profilesDir string) *Loader {
	return &Loader{profilesDir: profilesDir}
}

// LoadAll loads all YAML profile files from the profiles directory.
// A missing directory is not an error; the built-in default profile is
// always available under the name "default" unless a file overrides it.
func (l *Loader) LoadAll() (map[string]*Profile, error) {
	profiles := map[string]*Profile{
		"default": Default(),
	}

	if _, err := os.Stat(l.profilesDir); os.IsNotExist(err) {
		return profiles, nil
	}

	files, err := filepath.Glob(filepath.Join(l.profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		p, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(p); err != nil {
			return nil, fmt.Errorf("invalid profile %s: %w", file, err)
		}

		profiles[p.Name] = p
		slog.Debug("Loaded extraction profile", "name", p.Name, "file", file, "families", len(p.Families))
	}

	return profiles, nil
}

// loadFile loads a single YAML profile file
func (l *Loader) loadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	p.Name = strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")

	l.setDefaults(&p)

	return &p, nil
}

// setDefaults fills unset field selector lists from the built-in profile,
// so site profiles only need to override what differs
func (l *Loader) setDefaults(p *Profile) {
	def := Default()

	if len(p.Families) == 0 {
		p.Families = def.Families
	}
	if len(p.Fields.Title) == 0 {
		p.Fields.Title = def.Fields.Title
	}
	if len(p.Fields.Date) == 0 {
		p.Fields.Date = def.Fields.Date
	}
	if len(p.Fields.Time) == 0 {
		p.Fields.Time = def.Fields.Time
	}
	if len(p.Fields.Location) == 0 {
		p.Fields.Location = def.Fields.Location
	}
	if len(p.Fields.Description) == 0 {
		p.Fields.Description = def.Fields.Description
	}
}

// validate validates a profile
func (l *Loader) validate(p *Profile) error {
	if len(p.Families) == 0 {
		return fmt.Errorf("at least one selector family is required")
	}

	for i, family := range p.Families {
		if family.Tag == "" {
			return fmt.Errorf("family at index %d is missing a tag", i)
		}
		if family.Selector == "" {
			return fmt.Errorf("family %q has an empty selector", family.Tag)
		}
	}

	if len(p.Fields.Title) == 0 {
		return fmt.Errorf("at least one title selector is required")
	}
	if len(p.Fields.Date) == 0 {
		return fmt.Errorf("at least one date selector is required")
	}

	return nil
}
