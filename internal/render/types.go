package render

import (
	"fmt"
	"strings"
)

// Format identifies an output representation of the settings table.
type Format string

const (
	// FormatPython emits a module of KEY = 'value' assignments that the test
	// framework imports directly. Derived rows keep their interpolation.
	FormatPython Format = "python"
	FormatShell  Format = "shell"
	FormatEnv    Format = "env"
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatTOML   Format = "toml"
)

var formats = []Format{FormatPython, FormatShell, FormatEnv, FormatYAML, FormatJSON, FormatTOML}

// Formats lists the supported formats.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// ParseFormat resolves a format name. "py" and "sh" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "py":
		return FormatPython, nil
	case "sh":
		return FormatShell, nil
	case "yml":
		return FormatYAML, nil
	case FormatPython, FormatShell, FormatEnv, FormatYAML, FormatJSON, FormatTOML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ContentType is the MIME type used when serving f over HTTP.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatTOML:
		return "application/toml"
	case FormatPython:
		return "text/x-python; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension is the conventional file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatPython:
		return ".py"
	case FormatShell:
		return ".sh"
	case FormatEnv:
		return ".env"
	default:
		return "." + string(f)
	}
}
