package terms

import (
	"strings"

	"github.com/agentstation/searchterms/pkg/constants"
)

// ColumnKind classifies a terms table column by its name.
type ColumnKind int

const (
	// KindIdentifier columns form the natural row key.
	KindIdentifier ColumnKind = iota
	// KindTerm columns carry extracted vocabulary.
	KindTerm
	// KindAttribution columns flag which resource contributed a row.
	KindAttribution
	// KindIndex is the derived free-text search column.
	KindIndex
)

// String returns the string representation of a column kind.
func (k ColumnKind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindTerm:
		return "term"
	case KindAttribution:
		return "attribution"
	case KindIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Classify returns the kind of a column given only its name. Attribution
// wins over term so that a resource id containing "Term" stays attribution.
func Classify(name string) ColumnKind {
	switch {
	case strings.Contains(name, constants.AttributionMarker):
		return KindAttribution
	case name == constants.SearchIndexColumn:
		return KindIndex
	case strings.Contains(name, constants.TermMarker):
		return KindTerm
	default:
		return KindIdentifier
	}
}

// AttributionColumn returns the attribution column name for a resource.
func AttributionColumn(resourceID string) string {
	return constants.AttributionPrefix + resourceID
}

// IsTrue reports whether an attribution cell is set.
func IsTrue(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

// Schema is the typed view of a column list. Each class keeps the order in
// which its columns were given.
type Schema struct {
	Identifiers  []string
	Terms        []string
	Attributions []string
	Index        string
}

// SchemaOf classifies the given columns.
func SchemaOf(columns []string) Schema {
	var s Schema
	for _, c := range columns {
		switch Classify(c) {
		case KindIdentifier:
			s.Identifiers = append(s.Identifiers, c)
		case KindTerm:
			s.Terms = append(s.Terms, c)
		case KindAttribution:
			s.Attributions = append(s.Attributions, c)
		case KindIndex:
			s.Index = c
		}
	}
	return s
}

// Ordered returns the canonical column order: identifiers, terms,
// attribution, then the index column when present.
func (s Schema) Ordered() []string {
	out := make([]string, 0, len(s.Identifiers)+len(s.Terms)+len(s.Attributions)+1)
	out = append(out, s.Identifiers...)
	out = append(out, s.Terms...)
	out = append(out, s.Attributions...)
	if s.Index != "" {
		out = append(out, s.Index)
	}
	return out
}

// Key returns the columns that identify a row. Tables without identifier
// columns are keyed by their term columns.
func (s Schema) Key() []string {
	if len(s.Identifiers) > 0 {
		return s.Identifiers
	}
	return s.Terms
}

// Content returns the identifier and term columns, the inputs of the
// search index.
func (s Schema) Content() []string {
	out := make([]string, 0, len(s.Identifiers)+len(s.Terms))
	out = append(out, s.Identifiers...)
	return append(out, s.Terms...)
}

// HasAttribution reports whether the schema carries the given column.
func (s Schema) HasAttribution(column string) bool {
	for _, c := range s.Attributions {
		if c == column {
			return true
		}
	}
	return false
}

// JoinKey returns the columns two tables are matched on: the shared
// identifier columns, or the shared term columns when no identifier is
// shared. The order follows a.
func JoinKey(a, b Schema) []string {
	if key := intersect(a.Identifiers, b.Identifiers); len(key) > 0 {
		return key
	}
	return intersect(a.Terms, b.Terms)
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, c := range b {
		set[c] = struct{}{}
	}
	var out []string
	for _, c := range a {
		if _, ok := set[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
