// Package tabular is a reference extension that treats delimited data
// files as their own term lists: each selected column of the resource
// becomes a column of the contribution.
package tabular

import (
	"context"
	"encoding/csv"
	"os"
	"slices"
	"strings"

	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/extension"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/terms"
)

// Extension extracts terms from CSV and TSV resources.
type Extension struct {
	formats []string
	columns []string
}

var (
	_ extension.Eligibility = (*Extension)(nil)
	_ extension.Extractor   = (*Extension)(nil)
)

// New creates the extension. formats lists the eligible resource formats
// (case-insensitive). columns restricts the extracted columns; when empty
// every column is extracted.
func New(formats, columns []string) *Extension {
	lower := make([]string, len(formats))
	for i, f := range formats {
		lower[i] = strings.ToLower(f)
	}
	return &Extension{formats: lower, columns: columns}
}

// IsEligible reports whether the resource has one of the configured formats.
func (e *Extension) IsEligible(resource *host.Resource) bool {
	return resource != nil && slices.Contains(e.formats, strings.ToLower(resource.Format))
}

// Extract reads the resource file and projects the selected columns.
func (e *Extension) Extract(_ context.Context, req extension.Request) (*terms.Table, error) {
	if req.Path == "" {
		return nil, errors.New("resource has no uploaded file")
	}
	f, err := os.Open(req.Path)
	if err != nil {
		return nil, errors.WrapIO("open", req.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if strings.EqualFold(req.Resource.Format, "tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapParse(strings.ToLower(req.Resource.Format), req.Path, err)
	}
	if len(records) == 0 {
		return nil, errors.New("resource file is empty")
	}

	header := records[0]
	var keep []int
	for i, c := range header {
		kind := terms.Classify(c)
		if kind == terms.KindAttribution || kind == terms.KindIndex {
			continue
		}
		if len(e.columns) == 0 || slices.Contains(e.columns, c) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, errors.New("resource has none of the configured term columns")
	}

	names := make([]string, len(keep))
	for j, i := range keep {
		names[j] = header[i]
	}
	out := terms.New(names...)
	for _, rec := range records[1:] {
		row := make([]string, len(keep))
		for j, i := range keep {
			if i < len(rec) {
				row[j] = strings.TrimSpace(rec[i])
			}
		}
		if err := out.Append(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}
