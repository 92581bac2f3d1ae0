package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Settings are the keys editable from the admin panel.
type Settings struct {
	Port               int      `json:"port" validate:"min=1,max=65535"`
	Debug              bool     `json:"debug"`
	Readonly           bool     `json:"readonly"`
	WebAdmins          []string `json:"web_admins" validate:"required,dive,numeric"`
	MaintenanceMode    bool     `json:"maintenance_mode"`
	MaintenanceMessage string   `json:"maintenance_message"`
}

// Manager owns the current configuration snapshot. Snapshots are never
// mutated; Reload and SaveSettings swap in a new one.
type Manager struct {
	path    string
	mu      sync.Mutex
	current atomic.Pointer[Config]
}

func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path}
	if _, err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewStaticManager wraps an already built config; Reload re-reads path.
func NewStaticManager(cfg *Config, path string) *Manager {
	m := &Manager{path: path}
	m.current.Store(cfg)
	return m
}

func (m *Manager) Current() *Config {
	return m.current.Load()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.current.Store(cfg)
	return cfg, nil
}

// CurrentSettings returns the editable part of the current snapshot.
func (m *Manager) CurrentSettings() Settings {
	cfg := m.Current()
	return Settings{
		Port:               cfg.Server.Port,
		Debug:              cfg.Server.Debug,
		Readonly:           cfg.Admin.Readonly,
		WebAdmins:          append([]string(nil), cfg.Admin.WebAdmins...),
		MaintenanceMode:    cfg.Admin.MaintenanceMode,
		MaintenanceMessage: cfg.Admin.MaintenanceMessage,
	}
}

// SaveSettings writes s into the YAML file, keeping every other key and
// comment as is, then reloads.
func (m *Manager) SaveSettings(s Settings) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var doc yaml.Node
	data, err := os.ReadFile(m.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config root is not a mapping")
	}

	values := []struct {
		section, key string
		value        interface{}
	}{
		{"webserver", "port", s.Port},
		{"webserver", "debug", s.Debug},
		{"administration", "readonly", s.Readonly},
		{"administration", "web_admins", s.WebAdmins},
		{"administration", "maintenance_mode", s.MaintenanceMode},
		{"administration", "maintenance_message", s.MaintenanceMessage},
	}
	for _, v := range values {
		if err := setValue(root, v.section, v.key, v.value); err != nil {
			return nil, err
		}
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := writeFileAtomic(m.path, out); err != nil {
		return nil, err
	}

	return m.Reload()
}

func setValue(root *yaml.Node, section, key string, value interface{}) error {
	sectionNode := lookup(root, section)
	if sectionNode == nil {
		sectionNode = &yaml.Node{Kind: yaml.MappingNode}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: section},
			sectionNode,
		)
	}
	if sectionNode.Kind != yaml.MappingNode {
		return fmt.Errorf("config section %q is not a mapping", section)
	}

	var valueNode yaml.Node
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("encode %s.%s: %w", section, key, err)
	}

	if existing := lookup(sectionNode, key); existing != nil {
		valueNode.HeadComment = existing.HeadComment
		valueNode.LineComment = existing.LineComment
		*existing = valueNode
		return nil
	}
	sectionNode.Content = append(sectionNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&valueNode,
	)
	return nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
