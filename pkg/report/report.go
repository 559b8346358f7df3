// Package report writes analysis results as a table, JSON, or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ErrUnsupportedFormat is returned for an unknown output format.
type ErrUnsupportedFormat struct {
	Format string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported output format %q (expected table, json or yaml)", e.Format)
}

// ParseFormat maps a --output value to a Format. Empty selects table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", &ErrUnsupportedFormat{Format: s}
	}
}

// Write renders v to w in the requested format.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return writeTable(w, v)
	default:
		return &ErrUnsupportedFormat{Format: string(format)}
	}
}

func writeTable(w io.Writer, v any) error {
	switch v := v.(type) {
	case *types.VersionAnalysis:
		return writeAnalysis(w, v)
	case []types.ComponentVersion:
		return writeComponents(w, v)
	case *types.VersionComparison:
		return writeComparison(w, v)
	case []*types.ImageUpdate:
		return writeImageUpdates(w, v)
	case *types.ImageUpdate:
		return writeImageUpdates(w, []*types.ImageUpdate{v})
	case *types.ClusterInfo:
		return writeClusterInfo(w, v)
	default:
		return fmt.Errorf("no table layout for %T", v)
	}
}
