package artifact

import (
	"bytes"
	"encoding/csv"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/terms"
)

// ErrNotText reports artifact bytes that are not valid UTF-8 text.
var ErrNotText = errors.New("artifact is not UTF-8 text")

// Decode reads a tab-separated terms table. A leading byte order mark is
// honored and stripped. Every cell is kept as a string.
func Decode(r io.Reader) (*terms.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", "", err)
	}
	data, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), raw)
	if err != nil {
		return nil, errors.NewParseError("tsv", "", "decoding byte order mark", err)
	}
	if !utf8.Valid(data) {
		return nil, ErrNotText
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("tsv", "", err)
	}
	return terms.FromRecords(records)
}

// Encode writes a terms table as tab-separated text. An incidental row
// index column is not written.
func Encode(w io.Writer, t *terms.Table) error {
	if t.Has(constants.RowIndexColumn) {
		t = t.Clone()
		t.DropColumn(constants.RowIndexColumn)
	}
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	if err := writer.WriteAll(t.Records()); err != nil {
		return errors.WrapIO("write", "", err)
	}
	return nil
}
