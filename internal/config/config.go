package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to a key name to form its environment variable.
const EnvPrefix = "FUNCTEST_"

// Config is a resolved, read-only settings table. All keys are present.
// A Config is safe for concurrent use because nothing writes to it after Load.
type Config struct {
	values map[Key]string
}

// Entry is one resolved row of a Config.
type Entry struct {
	Key     Key
	Value   string
	Derived bool
}

// Overrides holds values supplied on the command line.
type Overrides struct {
	ConfigFile string
	Values     map[string]string
}

// Defaults returns the built-in table with derived values computed.
func Defaults() *Config {
	return build(nil)
}

// Load resolves the table from multiple sources with precedence:
// CLI overrides > config file > environment variables > defaults
func Load(overrides *Overrides) (*Config, error) {
	literals := make(map[Key]string)

	if err := applyEnvConfig(literals); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if overrides != nil && overrides.ConfigFile != "" {
		fileValues, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		if err := applyValues(literals, fileValues); err != nil {
			return nil, fmt.Errorf("apply config file: %w", err)
		}
	}

	if overrides != nil {
		if err := applyValues(literals, overrides.Values); err != nil {
			return nil, fmt.Errorf("apply CLI overrides: %w", err)
		}
	}

	cfg := build(literals)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// build walks the catalog once; sources always precede their derived rows.
func build(literals map[Key]string) *Config {
	values := make(map[Key]string, len(catalog))
	for _, e := range catalog {
		if e.derived() {
			values[e.key] = fmt.Sprintf(e.format, values[e.source])
			continue
		}
		value := e.literal
		if v, ok := literals[e.key]; ok {
			value = v
		}
		values[e.key] = value
	}
	return &Config{values: values}
}

// applyEnvConfig reads FUNCTEST_<KEY> variables. A variable that is set but
// empty yields an empty value.
func applyEnvConfig(literals map[Key]string) error {
	for _, e := range catalog {
		value, ok := os.LookupEnv(e.key.EnvVar())
		if !ok {
			continue
		}
		if e.derived() {
			return fmt.Errorf("%w: %s", ErrDerivedKey, e.key.EnvVar())
		}
		literals[e.key] = value
	}
	return nil
}

// applyValues merges one layer. Two names that resolve to the same key within
// a layer are rejected, since map iteration order would pick the winner.
func applyValues(literals map[Key]string, values map[string]string) error {
	seen := make(map[Key]string, len(values))
	for name, value := range values {
		key, err := ParseKey(name)
		if err != nil {
			return err
		}
		if key.Derived() {
			return fmt.Errorf("%w: %s", ErrDerivedKey, key)
		}
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q and %q both name %s", ErrDuplicateKey, prev, name, key)
		}
		seen[key] = name
		literals[key] = value
	}
	return nil
}

// loadFromFile reads a flat KEY: value mapping from a YAML or TOML file.
func loadFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", "":
		return parseYAML(data)
	case ".toml":
		return parseTOML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
	}
}

// parseYAML keeps scalar text exactly as written, so `TEST_JVM_STRING: 1.10`
// stays "1.10" instead of passing through a float.
func parseYAML(data []byte) (map[string]string, error) {
	raw := make(map[string]yaml.Node)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	values := make(map[string]string, len(raw))
	for name, node := range raw {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("key %s: %w", name, ErrNotScalar)
		}
		if node.ShortTag() == "!!null" {
			values[name] = ""
			continue
		}
		values[name] = node.Value
	}
	return values, nil
}

// parseTOML accepts strings, integers and booleans. Floats and dates cannot be
// reproduced verbatim after decoding, so they must be quoted.
func parseTOML(data []byte) (map[string]string, error) {
	raw := make(map[string]any)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}

	values := make(map[string]string, len(raw))
	for name, v := range raw {
		switch value := v.(type) {
		case string:
			values[name] = value
		case int64:
			values[name] = strconv.FormatInt(value, 10)
		case bool:
			values[name] = strconv.FormatBool(value)
		case map[string]any, []any, []map[string]any:
			return nil, fmt.Errorf("key %s: %w", name, ErrNotScalar)
		default:
			return nil, fmt.Errorf("key %s: %T value must be written as a quoted string", name, v)
		}
	}
	return values, nil
}

// Get returns the value for key and whether the key is known.
func (c *Config) Get(key Key) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Value returns the value for key, or "" for unknown keys.
func (c *Config) Value(key Key) string {
	return c.values[key]
}

// Entries returns every row in declaration order.
func (c *Config) Entries() []Entry {
	entries := make([]Entry, 0, len(catalog))
	for _, e := range catalog {
		entries = append(entries, Entry{
			Key:     e.key,
			Value:   c.values[e.key],
			Derived: e.derived(),
		})
	}
	return entries
}

// Map returns a copy of the table keyed by key name.
func (c *Config) Map() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[string(k)] = v
	}
	return out
}

// InstancePort returns DIRECTORY_INSTANCE_PORT as an integer.
func (c *Config) InstancePort() int {
	port, _ := strconv.Atoi(c.values[InstancePort])
	return port
}

// InstanceSSLPort returns DIRECTORY_INSTANCE_SSL_PORT as an integer.
func (c *Config) InstanceSSLPort() int {
	port, _ := strconv.Atoi(c.values[InstanceSSLPort])
	return port
}

// SendMailAfterRun reports whether a mail notification is requested.
func (c *Config) SendMailAfterRun() bool {
	return c.values[SendMail] == "true"
}

// InstanceLDAPURL returns the plain LDAP URL of the instance under test.
func (c *Config) InstanceLDAPURL() string {
	return fmt.Sprintf("ldap://%s:%s", c.values[InstanceHost], c.values[InstancePort])
}

// InstanceLDAPSURL returns the LDAPS URL of the instance under test.
func (c *Config) InstanceLDAPSURL() string {
	return fmt.Sprintf("ldaps://%s:%s", c.values[InstanceHost], c.values[InstanceSSLPort])
}
