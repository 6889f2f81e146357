// Package config builds the settings table consumed by the functional-test
// framework. Values are resolved from multiple sources with precedence:
// CLI overrides > config file > environment variables > defaults. Derived
// values (test directories, password file, instance directory) are computed
// from their sources once all layers are applied, and the resulting Config is
// never modified afterwards.
package config
