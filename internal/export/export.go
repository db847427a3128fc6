// Package export writes descriptor set snapshots as JSON, YAML or XLSX.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/broady/typroxy"
)

// Exporter writes a descriptor set snapshot.
type Exporter interface {
	Export(w io.Writer, info typroxy.SetInfo) error
}

// Formats lists the supported format names.
var Formats = []string{"json", "yaml", "xlsx"}

// ForFormat returns the exporter for a format name. "yml" and "excel"
// are accepted as aliases.
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONExporter{Indent: "  "}, nil
	case "yaml", "yml":
		return YAMLExporter{}, nil
	case "xlsx", "excel":
		return NewXLSXExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// JSONExporter writes the snapshot as JSON.
type JSONExporter struct {
	Indent string
}

// Export implements Exporter.
func (e JSONExporter) Export(w io.Writer, info typroxy.SetInfo) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", e.Indent)
	if err := enc.Encode(info); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// YAMLExporter writes the snapshot as YAML.
type YAMLExporter struct{}

// Export implements Exporter.
func (YAMLExporter) Export(w io.Writer, info typroxy.SetInfo) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(info); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
