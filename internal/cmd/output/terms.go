package output

import (
	"io"

	"github.com/agentstation/searchterms/pkg/terms"
)

// TermsData renders a consolidated table for table output.
func TermsData(t *terms.Table) Data {
	if t == nil {
		return Data{Headers: []string{}, Rows: [][]string{}}
	}
	records := t.Records()
	return Data{Headers: records[0], Rows: records[1:]}
}

// TermsRows renders a consolidated table as one map per row, for JSON
// and YAML output.
func TermsRows(t *terms.Table) []map[string]string {
	rows := make([]map[string]string, t.Len())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Print writes data in format. Table output renders tableData instead
// when it is given.
func Print(w io.Writer, format Format, data any, tableData *Data) error {
	formatter := NewFormatter(format)
	if tableData != nil && (format == FormatTable || format == "") {
		return formatter.Format(w, *tableData)
	}
	return formatter.Format(w, data)
}
