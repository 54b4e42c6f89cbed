// Package format renders CLI results as json, edn, yaml or a text table.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

var Formats = []string{"json", "edn", "yaml", "table"}

// Tabular values control their own table layout. Anything else is rendered
// from its JSON form.
type Tabular interface {
	TableHeader() []string
	TableRows() [][]any
}

// Write writes v in the requested format. json is the default.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	case "yaml", "yml":
		return WriteYAML(w, v)
	case "table":
		return WriteTable(w, v)
	default:
		return fmt.Errorf("unknown format: %s (want one of json, edn, yaml, table)", format)
	}
}

func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteYAML goes through JSON first so field names follow the json tags.
func WriteYAML(w io.Writer, v any) error {
	x, err := generic(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(x); err != nil {
		return err
	}
	return enc.Close()
}

func WriteTable(w io.Writer, v any) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	if tv, ok := v.(Tabular); ok {
		t.AppendHeader(row(tv.TableHeader()))
		for _, r := range tv.TableRows() {
			t.AppendRow(table.Row(r))
		}
		t.Render()
		return nil
	}

	x, err := generic(v)
	if err != nil {
		return err
	}
	switch x := x.(type) {
	case map[string]any:
		t.AppendHeader(table.Row{"key", "value"})
		for _, k := range sortedKeys(x) {
			t.AppendRow(table.Row{k, cell(x[k])})
		}
	case []any:
		cols := columns(x)
		t.AppendHeader(row(cols))
		for _, it := range x {
			m, _ := it.(map[string]any)
			r := make(table.Row, len(cols))
			for i, c := range cols {
				if m != nil {
					r[i] = cell(m[c])
				} else if i == 0 {
					r[i] = cell(it)
				}
			}
			t.AppendRow(r)
		}
	default:
		t.AppendRow(table.Row{cell(x)})
	}
	t.Render()
	return nil
}

func generic(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var x any
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	if err := d.Decode(&x); err != nil {
		return nil, err
	}
	return x, nil
}

func row(xs []string) table.Row {
	r := make(table.Row, len(xs))
	for i, x := range xs {
		r[i] = x
	}
	return r
}

// columns is the sorted union of keys across a list of objects.
func columns(xs []any) []string {
	seen := map[string]bool{}
	for _, it := range xs {
		if m, ok := it.(map[string]any); ok {
			for k := range m {
				seen[k] = true
			}
		}
	}
	if len(seen) == 0 {
		return []string{"value"}
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cell flattens nested values to compact JSON.
func cell(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		b, _ := json.Marshal(v)
		return string(b)
	default:
		return v
	}
}
