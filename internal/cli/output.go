package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/hrentities/pkg/entity"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// printRaw writes a JSON document indented, or as is when it does not parse.
func printRaw(w io.Writer, doc json.RawMessage) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		fmt.Fprintln(w, string(doc))
		return nil
	}
	return printJSON(w, v)
}

// table buffers tab-separated rows and prints them aligned, trimming the
// padding at the end of each line.
type table struct {
	sb strings.Builder
	tw *tabwriter.Writer
}

func newTable(header ...string) *table {
	t := &table{}
	t.tw = tabwriter.NewWriter(&t.sb, 0, 0, 2, ' ', 0)
	t.row(header...)
	return t
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) print(w io.Writer) {
	t.tw.Flush()
	for _, line := range strings.Split(strings.TrimRight(t.sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// displayValue renders a field for tables. Enum values show their label.
func displayValue(f *entity.Field) string {
	s, ok := f.StringValue()
	if !ok {
		return ""
	}
	if label, ok := f.ValueLabel(); ok && label != s {
		return fmt.Sprintf("%s (%s)", s, label)
	}
	return s
}

// printRecord prints one record as label/value pairs.
func printRecord(w io.Writer, e *entity.Entity) {
	t := newTable("FIELD", "LABEL", "VALUE")
	for _, f := range e.Fields() {
		t.row(f.Name(), f.Label(), displayValue(f))
	}
	t.print(w)
}

// parseID reads a record id given on the command line. Integer ids are
// returned as int64.
func parseID(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
