// Package render provides centralized output rendering for the intel CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
//
// Color handling:
//   - --no-color affects table output only
//   - TUI mode is unaffected by --no-color (uses its own styling)
//
// Mission streams are rendered chunk by chunk: json and yaml emit one
// document per chunk, table prints one styled line per chunk.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/intel/cli/tui"
	"github.com/pithecene-io/intel/types"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context, writing to the app's
// writer. Applies the TTY-based format default.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	formatStr := c.String("format")
	format, err := ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stdout
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}

	// Apply default format based on TTY detection
	if format == "" {
		if f, ok := out.(*os.File); ok && isTTY(f) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     out,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// Format returns the resolved output format.
func (r *Renderer) Format() Format {
	return r.format
}

// RenderTUI initiates TUI mode for the given view type.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	// Validate TUI is supported for this view type
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}

	// Run the TUI
	return tui.Run(viewType, data)
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	return enc.Encode(data)
}

// renderTable prints a slice as one row per element under json-tag headers,
// and a single struct as aligned "field: value" lines.
func (r *Renderer) renderTable(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	v := reflect.Indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			fmt.Fprintln(w, "(no results)")
			return nil
		}
		elem := v.Type().Elem()
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			for i := range v.Len() {
				fmt.Fprintln(w, formatValue(v.Index(i)))
			}
			return nil
		}
		cols := columns(elem)
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.name
		}
		fmt.Fprintln(w, strings.Join(names, "\t"))
		for i := range v.Len() {
			fmt.Fprintln(w, strings.Join(rowValues(reflect.Indirect(v.Index(i)), cols), "\t"))
		}
	case reflect.Struct:
		for _, c := range columns(v.Type()) {
			fmt.Fprintf(w, "%s:\t%s\n", c.name, formatValue(v.Field(c.index)))
		}
	default:
		fmt.Fprintf(w, "%v\n", data)
	}
	return nil
}

// column is one exported struct field shown in table output.
type column struct {
	name  string
	index int
}

func columns(t reflect.Type) []column {
	var cols []column
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.ToLower(f.Name)
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		cols = append(cols, column{name: name, index: i})
	}
	return cols
}

// rowValues formats v's columns. A nil element yields an empty row.
func rowValues(v reflect.Value, cols []column) []string {
	row := make([]string, len(cols))
	if !v.IsValid() {
		return row
	}
	for i, c := range cols {
		row[i] = formatValue(v.Field(c.index))
	}
	return row
}

// formatValue renders one cell. Nil pointers are blank, collections are
// summarized by size, and structs print through fmt.Stringer.
func formatValue(v reflect.Value) string {
	v = reflect.Indirect(v)
	switch v.Kind() {
	case reflect.Invalid:
		return ""
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		if v.CanInterface() {
			if s, ok := v.Interface().(fmt.Stringer); ok {
				return s.String()
			}
		}
		return "{...}"
	default:
		return fmt.Sprint(v.Interface())
	}
}

// RenderChunk outputs one streamed chunk.
func (r *Renderer) RenderChunk(c types.StreamChunk) error {
	switch r.format {
	case FormatJSON:
		return json.NewEncoder(r.out).Encode(c)
	case FormatYAML:
		// Round-trip through the wire form so only variant fields appear.
		var doc map[string]any
		b, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "---")
		return r.renderYAML(doc)
	case FormatTable:
		if r.noColor {
			_, err := fmt.Fprintf(r.out, "[%s] %s\n", c.Type, c.Summary())
			return err
		}
		_, err := fmt.Fprintln(r.out, tui.RenderChunk(c))
		return err
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderMessage outputs a committed transcript message. Table output
// prints only the content, since its chunks were already streamed.
func (r *Renderer) RenderMessage(m types.Message) error {
	switch r.format {
	case FormatTable:
		switch {
		case r.noColor:
			_, err := fmt.Fprintf(r.out, "\n%s\n", m.Content)
			return err
		case m.IsError():
			_, err := fmt.Fprintf(r.out, "\n%s\n", tui.ErrorStyle.Render(m.Content))
			return err
		default:
			_, err := fmt.Fprintf(r.out, "\n%s\n", m.Content)
			return err
		}
	case FormatJSON:
		return json.NewEncoder(r.out).Encode(m)
	default:
		return r.Render(m)
	}
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
