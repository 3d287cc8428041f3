// Package config reads the currency to keyspace mapping served by the API.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/monacohq/graphsense-REST/pkg/db/graph"
	"github.com/monacohq/graphsense-REST/pkg/utils"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

// KeyspaceConfig names the raw and transformed databases of one currency.
type KeyspaceConfig struct {
	Raw         string `yaml:"raw"`
	Transformed string `yaml:"transformed"`
}

type Config struct {
	Currencies map[string]KeyspaceConfig `yaml:"currencies"`
}

// Path returns CONFIG_FILE or the default location.
func Path() string {
	return utils.Env("CONFIG_FILE", DefaultPath)
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document. Currency names are lowercased.
func Parse(data []byte) (*Config, error) {
	var raw Config
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg := &Config{Currencies: make(map[string]KeyspaceConfig, len(raw.Currencies))}
	for name, ks := range raw.Currencies {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, errors.New("config: empty currency name")
		}
		if _, dup := cfg.Currencies[key]; dup {
			return nil, fmt.Errorf("config: currency %q listed twice", key)
		}
		if err := ks.Keyspace().Validate(); err != nil {
			return nil, fmt.Errorf("config: currency %q: %w", key, err)
		}
		cfg.Currencies[key] = ks
	}
	if len(cfg.Currencies) == 0 {
		return nil, errors.New("config: no currencies configured")
	}
	return cfg, nil
}

func (k KeyspaceConfig) Keyspace() graph.Keyspace {
	return graph.Keyspace{Raw: k.Raw, Transformed: k.Transformed}
}

// Names lists the configured currencies in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Currencies))
	for name := range c.Currencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
