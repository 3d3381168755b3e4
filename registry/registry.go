package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/browser-acceptor/status"
)

// Registry holds the browser profiles a suite can run against
type Registry struct {
	config   Config
	profiles map[string]Profile
	status   status.Config
	mu       sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log          log.Logger
	ProfilesFile string
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.ProfilesFile == "" {
		return nil, fmt.Errorf("browser profiles file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config: cfg,
	}
	if err := r.loadProfiles(cfg.ProfilesFile); err != nil {
		return nil, fmt.Errorf("failed to load browser profiles: %w", err)
	}

	cfg.Log.Debug("Registry loaded", "len(profiles)", len(r.profiles))
	return r, nil
}

func (r *Registry) loadProfiles(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	byID := make(map[string]Profile, len(cfg.Browsers))
	for _, p := range cfg.Browsers {
		if p.ID == "" {
			return fmt.Errorf("browser profile without an id")
		}
		if _, dup := byID[p.ID]; dup {
			return fmt.Errorf("duplicate browser profile %q", p.ID)
		}
		byID[p.ID] = p
	}

	resolved := make(map[string]Profile, len(byID))
	for id, p := range byID {
		if err := p.ResolveInherited(byID); err != nil {
			return fmt.Errorf("invalid profile inheritance: %w", err)
		}
		resolved[id] = p
	}

	r.profiles = resolved
	r.status = cfg.Status
	return nil
}

// Profile returns a fully resolved profile by ID
func (r *Registry) Profile(id string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("unknown browser profile %q (available: %s)", id, strings.Join(r.idsLocked(), ", "))
	}
	if p.Remote == "" {
		return Profile{}, fmt.Errorf("browser profile %q has no remote url", id)
	}
	return p, nil
}

// ProfileIDs returns all profile IDs, sorted
func (r *Registry) ProfileIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

// StatusConfig returns the test status sink configuration
func (r *Registry) StatusConfig() status.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// loadConfig reads a profiles file, choosing the decoder by extension
func loadConfig(path string) (*ProfilesConfig, error) {
	log.Debug("Reading browser profiles file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg ProfilesConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}

	return &cfg, nil
}
