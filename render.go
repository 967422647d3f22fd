package main

import (
	"fmt"
	"io"

	"librarydb/config"
	"librarydb/library"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderRecords prints select results. Plain output is one record per line
// with strings unquoted.
func renderRecords(w io.Writer, schema *library.Schema, records []library.Record, format string) error {
	if format != config.OutputTable {
		for _, r := range records {
			if _, err := fmt.Fprintln(w, library.Format(r)); err != nil {
				return err
			}
		}
		return nil
	}
	return renderTable(w, schema, records)
}

func renderTable(w io.Writer, schema *library.Schema, records []library.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(schema.Fields))
	for i, name := range schema.FieldNames() {
		header[i] = name
	}
	t.AppendHeader(header)

	for _, r := range records {
		vals := r.Values()
		row := make(table.Row, len(vals))
		for i, v := range vals {
			row[i] = library.FormatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(records))
	return err
}
