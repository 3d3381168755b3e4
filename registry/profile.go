package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ethereum-optimism/infra/browser-acceptor/session"
	"github.com/ethereum-optimism/infra/browser-acceptor/status"
)

// ProfilesConfig is the on-disk browser profiles file.
type ProfilesConfig struct {
	Browsers []Profile     `yaml:"browsers" toml:"browsers"`
	Status   status.Config `yaml:"status" toml:"status"`
}

// Profile describes one browser configuration the suite can run against.
type Profile struct {
	ID                   string         `yaml:"id" toml:"id"`
	Description          string         `yaml:"description,omitempty" toml:"description"`
	Inherits             []string       `yaml:"inherits,omitempty" toml:"inherits"`
	Remote               string         `yaml:"remote,omitempty" toml:"remote"`
	Capabilities         map[string]any `yaml:"capabilities,omitempty" toml:"capabilities"`
	RequiredCapabilities []string       `yaml:"required_capabilities,omitempty" toml:"required_capabilities"`
}

// BrowserConfig converts the profile into what a session.Dialer needs.
func (p Profile) BrowserConfig() session.BrowserConfig {
	return session.BrowserConfig{
		Name:         p.ID,
		RemoteURL:    p.Remote,
		Capabilities: maps.Clone(p.Capabilities),
	}
}

// ResolveInherited merges settings from the profiles named in Inherits into p.
//
// Inheritance is recursive and depth-first. The rules are:
// - Remote: the first non-empty value wins, checking the child before its parents
// - Capabilities: keys set by the child override those of its parents
// - RequiredCapabilities: the union, child entries first
func (p *Profile) ResolveInherited(profiles map[string]Profile) error {
	processed := map[string]bool{p.ID: true}
	return p.resolveInheritedRecursive(profiles, processed)
}

func (p *Profile) resolveInheritedRecursive(profiles map[string]Profile, processed map[string]bool) error {
	if len(p.Inherits) == 0 {
		return nil
	}

	merged := maps.Clone(p.Capabilities)
	if merged == nil {
		merged = make(map[string]any)
	}
	required := slices.Clone(p.RequiredCapabilities)

	for _, inheritFrom := range p.Inherits {
		if processed[inheritFrom] {
			return fmt.Errorf("circular inheritance detected for profile %q", inheritFrom)
		}
		parent, ok := profiles[inheritFrom]
		if !ok {
			return fmt.Errorf("profile %q inherits from non-existent profile %q", p.ID, inheritFrom)
		}

		processed[inheritFrom] = true
		if err := parent.resolveInheritedRecursive(profiles, processed); err != nil {
			return fmt.Errorf("resolving inheritance for parent profile %q: %w", inheritFrom, err)
		}
		processed[inheritFrom] = false

		if p.Remote == "" {
			p.Remote = parent.Remote
		}
		for k, v := range parent.Capabilities {
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
		for _, name := range parent.RequiredCapabilities {
			if !slices.Contains(required, name) {
				required = append(required, name)
			}
		}
	}

	p.Capabilities = merged
	p.RequiredCapabilities = required
	return nil
}
