// Package output renders CLI results as text, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"bfstats/internal/stats"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

func NewFormatter(f Format) Formatter {
	switch f {
	case FormatJSON:
		return JSONFormatter{}
	case FormatYAML:
		return YAMLFormatter{}
	default:
		return TextFormatter{}
	}
}

type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

type YAMLFormatter struct{}

func (YAMLFormatter) Format(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// TextFormatter prints strings as lines and rows as tab aligned tables.
// Other values fall back to JSON.
type TextFormatter struct{}

func (TextFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	case []stats.Record:
		rows := make([]map[string]string, len(v))
		for i, rec := range v {
			rows[i] = make(map[string]string, len(rec))
			for k, val := range rec {
				rows[i][k] = cell(val)
			}
		}
		return table(w, rows)
	case *stats.Result:
		rows := make([]map[string]string, len(v.Rows))
		for i, r := range v.Rows {
			rows[i] = r
		}
		return table(w, rows)
	default:
		return JSONFormatter{}.Format(w, data)
	}
}

func cell(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return fmt.Sprintf("%.4g", t)
	default:
		return fmt.Sprint(t)
	}
}

// table prints consecutive rows sharing a key set under one header line.
func table(w io.Writer, rows []map[string]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	var header []string
	for _, r := range rows {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		if !slices.Equal(keys, header) {
			if header != nil {
				fmt.Fprintln(tw)
			}
			header = keys
			fmt.Fprintln(tw, strings.ToUpper(strings.Join(keys, "\t")))
		}
		vals := make([]string, len(keys))
		for i, k := range keys {
			vals[i] = r[k]
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
	}
	return tw.Flush()
}
