// Package render writes a resolved settings table in the formats consumed by
// test hosts: an importable Python module, shell exports, dotenv, YAML, JSON
// and TOML. Output is deterministic for a given table.
package render
