// Package config loads named YAML configuration files with an optional
// per-environment overlay.
//
// Load("conf", "app", "staging") reads conf/app.yaml and then conf/staging/app.yaml.
// Top-level keys of the environment file replace those of the base file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

const fileExtension = ".yaml"

// ProxyIPsKey is the key TrustedProxies reads.
const ProxyIPsKey = "proxy_ips"

var (
	// ErrInvalidFile is returned when a configuration file does not hold a
	// mapping at the top level.
	ErrInvalidFile = errors.New("invalid configuration file")
	// ErrKeyNotFound is wrapped by *KeyError.
	ErrKeyNotFound = errors.New("config key not found")
	// ErrWrongType is returned when a key exists but holds an unexpected type.
	ErrWrongType = errors.New("config value has wrong type")
)

// KeyError reports a lookup of a key the configuration does not define.
type KeyError struct {
	Key  string
	Name string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("no config entry exists with key: %s in %s", e.Key, e.Name)
}

func (e *KeyError) Unwrap() error {
	return ErrKeyNotFound
}

// Config is an immutable set of top-level configuration entries.
type Config struct {
	name   string
	values map[string]any
}

// Load reads <dir>/<name>.yaml and, when env is not empty, overlays
// <dir>/<env>/<name>.yaml on top of it. Files that do not exist or cannot
// be read contribute nothing.
func Load(dir, name, env string) (*Config, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("config name cannot be empty")
	}

	values, err := readFile(filepath.Join(dir, name+fileExtension))
	if err != nil {
		return nil, err
	}

	if env != "" {
		overlay, err := readFile(filepath.Join(dir, env, name+fileExtension))
		if err != nil {
			return nil, err
		}
		maps.Copy(values, overlay)
	}

	return &Config{name: name, values: values}, nil
}

// New builds a Config from values already in memory.
func New(name string, values map[string]any) *Config {
	return &Config{name: name, values: maps.Clone(values)}
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	values, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

func parse(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return map[string]any{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w (top level is not a mapping)", ErrInvalidFile)
	}

	values := map[string]any{}
	if err := root.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return values, nil
}

// Name returns the configuration name passed to Load.
func (c *Config) Name() string {
	return c.name
}

// Has reports whether key is defined.
func (c *Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Get returns the raw value stored under key.
func (c *Config) Get(key string) (any, error) {
	v, ok := c.values[key]
	if !ok {
		return nil, &KeyError{Key: key, Name: c.name}
	}
	return v, nil
}

// String returns the value under key, which must be a string.
func (c *Config) String(key string) (string, error) {
	v, err := c.Get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s in %s is %T, not a string", ErrWrongType, key, c.name, v)
	}
	return s, nil
}

// StringSlice returns the value under key, which must be a list of strings.
func (c *Config) StringSlice(key string) ([]string, error) {
	v, err := c.Get(key)
	if err != nil {
		return nil, err
	}

	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s is %T, not a list", ErrWrongType, key, c.name, v)
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] in %s is %T, not a string", ErrWrongType, key, i, c.name, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// All returns a copy of every top-level entry.
func (c *Config) All() map[string]any {
	return maps.Clone(c.values)
}

// TrustedProxies returns the proxy addresses listed under proxy_ips. The
// value may be a list or a comma-separated string; spaces are removed from
// the string form. A missing key yields no proxies.
func (c *Config) TrustedProxies() ([]string, error) {
	v, ok := c.values[ProxyIPsKey]
	if !ok || v == nil {
		return nil, nil
	}

	if s, ok := v.(string); ok {
		s = strings.ReplaceAll(s, " ", "")
		if s == "" {
			return nil, nil
		}
		return strings.Split(s, ","), nil
	}

	return c.StringSlice(ProxyIPsKey)
}
