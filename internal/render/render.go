// Package render turns rows and reflected tables into text for the shell, the
// CLI and the explorer.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kadirbelkuyu/unisql/internal/dao"
	"github.com/kadirbelkuyu/unisql/internal/schema"
	"github.com/kadirbelkuyu/unisql/internal/value"
)

const maxCellWidth = 60

// Cell renders one value for a grid. Long text is cut with an ellipsis.
func Cell(v value.Value) string {
	var s string
	switch v.Kind() {
	case value.KindBlob:
		b, _ := value.As[[]byte](v)
		s = fmt.Sprintf("<%d bytes>", len(b))
	case value.KindImageURI:
		s = "<image>"
	default:
		s = v.String()
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-1]) + "…"
	}
	return s
}

// Grid returns the header and at most limit rendered rows. A limit of zero
// or less keeps every row. Cells are read positionally so duplicate column
// names survive.
func Grid(rows *dao.Rows, limit int) ([]string, [][]string) {
	header := append([]string(nil), rows.Columns...)
	var data [][]string
	for _, row := range rows.Data {
		if len(row) == 0 || (limit > 0 && len(data) >= limit) {
			break
		}
		line := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				line[i] = Cell(row[i])
			}
		}
		data = append(data, line)
	}
	return header, data
}

// WriteRows prints rows as an aligned table followed by a row count.
func WriteRows(w io.Writer, rows *dao.Rows) error {
	header, data := Grid(rows, 0)
	if len(header) == 0 {
		_, err := fmt.Fprintln(w, "OK")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(rule(header), "\t"))
	for _, line := range data {
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(data))
	return err
}

func rule(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.Repeat("-", len([]rune(h)))
	}
	return out
}

// WriteTable prints the columns and keys of a reflected table.
func WriteTable(w io.Writer, table schema.Table) error {
	kind := "Table"
	if table.IsView {
		kind = "View"
	}
	fmt.Fprintf(w, "%s %s\n", kind, table.Name.CompleteName())
	if table.Comment != "" {
		fmt.Fprintf(w, "  %s\n", table.Comment)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Column\tType\tNullable\tDefault\tExtra")
	for _, col := range table.Columns {
		nullable := "YES"
		if col.IsNotNull() {
			nullable = "NO"
		}
		def := ""
		if d := col.Default(); d != nil {
			def = d.String()
		}
		extra := ""
		if col.IsAutoIncrement() {
			extra = "auto_increment"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", col.Name, col.TypeString(), nullable, def, extra)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, key := range table.Keys {
		line := fmt.Sprintf("  %s %s (%s)", key.Kind, key.Name, strings.Join(key.Columns, ", "))
		if key.Kind == schema.ForeignKey {
			line += fmt.Sprintf(" REFERENCES %s (%s)", key.ForeignTable.CompleteName(), strings.Join(key.ReferredColumns, ", "))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// QualifiedName quotes each part of name with the dialect's quoting.
func QualifiedName(d schema.Dialect, name schema.TableName) string {
	quote := d.Quote
	if quote == nil {
		quote = func(s string) string { return s }
	}
	if name.Schema != nil && *name.Schema != "" {
		return quote(*name.Schema) + "." + quote(name.Name)
	}
	return quote(name.Name)
}

// IsQuery reports whether text is expected to return rows.
func IsQuery(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range []string{"select", "with", "show", "pragma", "explain", "values", "describe", "table"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
