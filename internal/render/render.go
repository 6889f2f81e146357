package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/functest-config/internal/config"
)

// Render writes cfg to w in the given format.
func Render(w io.Writer, cfg *config.Config, format Format) error {
	switch format {
	case FormatPython:
		return renderPython(w, cfg)
	case FormatShell:
		return renderLines(w, cfg, func(e config.Entry) string {
			return fmt.Sprintf("export %s=%s", e.Key, shellQuote(e.Value))
		})
	case FormatEnv:
		return renderLines(w, cfg, func(e config.Entry) string {
			return fmt.Sprintf("%s=%s", e.Key, envQuote(e.Value))
		})
	case FormatYAML:
		return renderYAML(w, cfg)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg.Map()); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(cfg.Map()); err != nil {
			return fmt.Errorf("encode TOML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// String renders cfg into a string.
func String(cfg *config.Config, format Format) (string, error) {
	var sb strings.Builder
	if err := Render(&sb, cfg, format); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderLines(w io.Writer, cfg *config.Config, line func(config.Entry) string) error {
	bw := bufio.NewWriter(w)
	for _, e := range cfg.Entries() {
		if _, err := fmt.Fprintln(bw, line(e)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// renderPython pads names to a common column and keeps derived rows as
// '%s/suffix' % SOURCE so the module stays consistent if a source is edited.
func renderPython(w io.Writer, cfg *config.Config) error {
	width := 0
	for _, key := range config.Keys() {
		width = max(width, len(key))
	}

	return renderLines(w, cfg, func(e config.Entry) string {
		name := fmt.Sprintf("%-*s", width, e.Key)
		if template, ok := e.Key.Template(); ok {
			source, _ := e.Key.Source()
			return fmt.Sprintf("%s = %s %% %s", name, pythonQuote(template), source)
		}
		return fmt.Sprintf("%s = %s", name, pythonQuote(e.Value))
	})
}

func renderYAML(w io.Writer, cfg *config.Config) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range cfg.Entries() {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(e.Key)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value},
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

func pythonQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return "'" + s + "'"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, `'`, `'\''`) + "'"
}

func envQuote(s string) string {
	for _, r := range s {
		if !(r == '/' || r == '.' || r == '_' || r == '-' || r == '=' || r == ',' || r == ':' || r == '@' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return strconv.Quote(s)
		}
	}
	return s
}
