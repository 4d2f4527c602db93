package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mask-the-sequence/game/engine"
	"github.com/wricardo/mask-the-sequence/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// extensions lists the rule set file formats in lookup order
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles rule set loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.RuleSet
	configs       map[string]*engine.RuleSet
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.RuleSet),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadConfig loads a rule set by name. The name may carry its extension.
func (m *Manager) LoadConfig(name string) (*engine.RuleSet, error) {
	key := configID(name)

	m.mu.RLock()
	// Check cache first
	if rules, exists := m.configs[key]; exists {
		m.mu.RUnlock()
		return rules, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.configs[key]; exists {
		return rules, nil
	}

	configPath, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	rules, err := engine.ParseRuleSet(configPath, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := engine.ValidateRuleSet(rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[key] = rules
	return rules, nil
}

// resolve finds the file behind a config name
func (m *Manager) resolve(name string) (string, error) {
	if isRuleSetFile(name) {
		path := filepath.Join(m.configDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", ErrConfigNotFound
		}
		return path, nil
	}
	for _, ext := range extensions {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

// ListConfigs returns information about all available rule sets
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isRuleSetFile(entry.Name()) {
			continue
		}

		id := configID(entry.Name())
		if seen[id] {
			continue
		}

		rules, err := m.LoadConfig(entry.Name())
		if err != nil {
			// Skip invalid configs
			continue
		}
		seen[id] = true

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id, // This is the identifier to use for session creation
			Name:        rules.Name,
			Description: rules.Description,
			Format:      strings.TrimPrefix(filepath.Ext(entry.Name()), "."),
			Tiers:       len(rules.Tiers),
			Items:       len(rules.Items),
		})
	}

	return configs, nil
}

// GetDefault returns the default rule set
func (m *Manager) GetDefault() *engine.RuleSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default rule set by name
func (m *Manager) SetDefault(name string) error {
	rules, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = rules
	return nil
}

// RefreshCache drops every cached rule set and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.RuleSet)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig loads classic, then the first valid file, then the
// built-in rule set
func (m *Manager) loadDefaultConfig() error {
	rules, err := m.LoadConfig("classic")
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			rules = engine.DefaultRuleSet()
		} else if rules, err = m.LoadConfig(configs[0].Filename); err != nil {
			rules = engine.DefaultRuleSet()
		}
	}

	m.mu.Lock()
	m.defaultConfig = rules
	m.mu.Unlock()
	return nil
}

// SaveConfig validates and writes a rule set. A name ending in .yaml or .yml
// is written as YAML, anything else as JSON.
func (m *Manager) SaveConfig(name string, rules *engine.RuleSet) error {
	if err := engine.ValidateRuleSet(rules); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	filename := name
	if !isRuleSetFile(filename) {
		filename = name + ".json"
	}

	var data []byte
	var err error
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(rules)
	default:
		data, err = json.MarshalIndent(rules, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, filename)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[configID(filename)] = rules
	m.mu.Unlock()

	return nil
}

func isRuleSetFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// configID strips a known extension from a file or config name
func configID(name string) string {
	if isRuleSetFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
