package terms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/terms"
)

func TestFromRecords(t *testing.T) {
	tbl, err := terms.FromRecords([][]string{
		{"Code", "Term_1", "rsrc-1"},
		{"A", "Apple", "true"},
		{"B", "Banana"},
		{"C", "Cherry", "no"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"True", "", ""}, tbl.Column("rsrc-1"))
	assert.Equal(t, "Banana", tbl.Get(1, "Term_1"))
	assert.Equal(t, "", tbl.Get(1, "missing"))
	assert.Nil(t, tbl.Column("missing"))
}

func TestFromRecordsErrors(t *testing.T) {
	t.Run("no header", func(t *testing.T) {
		_, err := terms.FromRecords(nil)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("legacy marker", func(t *testing.T) {
		_, err := terms.FromRecords([][]string{{"Term", "found_in_1"}, {"x", "y"}})
		assert.ErrorIs(t, err, errors.ErrLegacySchema)
	})

	t.Run("duplicate column", func(t *testing.T) {
		_, err := terms.FromRecords([][]string{{"Term", "Term"}})
		var perr *errors.ParseError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("long row", func(t *testing.T) {
		_, err := terms.FromRecords([][]string{{"Term"}, {"a", "b"}})
		var perr *errors.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 2, perr.Line)
	})
}

func TestRecordsIsACopy(t *testing.T) {
	tbl := terms.New("Term_1")
	require.NoError(t, tbl.Append("Apple"))
	recs := tbl.Records()
	recs[1][0] = "Pear"
	assert.Equal(t, "Apple", tbl.Get(0, "Term_1"))
	assert.Equal(t, [][]string{{"Term_1"}, {"Apple"}}, tbl.Records())
}

func TestAppendAndColumns(t *testing.T) {
	tbl := terms.New("Term_1", "Term_1", "Code")
	assert.Equal(t, []string{"Term_1", "Code"}, tbl.Columns())

	assert.Error(t, tbl.Append("only-one"))
	require.NoError(t, tbl.Append("Apple", "A"))

	tbl.AppendRow(map[string]string{"Term_1": "Orange", "Group": "citrus"})
	assert.Equal(t, []string{"Term_1", "Code", "Group"}, tbl.Columns())
	assert.Equal(t, "", tbl.Get(0, "Group"))
	assert.Equal(t, "citrus", tbl.Get(1, "Group"))
	assert.Equal(t, map[string]string{"Term_1": "Orange", "Code": "", "Group": "citrus"}, tbl.Row(1))

	tbl.Set(0, "Note", "red")
	assert.Equal(t, "red", tbl.Get(0, "Note"))
	assert.Equal(t, "", tbl.Get(1, "Note"))
}

func TestStampAndPrune(t *testing.T) {
	tbl := terms.New("Term_1")
	require.NoError(t, tbl.Append("Apple"))
	require.NoError(t, tbl.Append("Orange"))

	col := tbl.Stamp("R1")
	assert.Equal(t, "rsrc-R1", col)
	assert.Equal(t, []string{"True", "True"}, tbl.Column(col))
	assert.True(t, tbl.Attributed(0))

	tbl.Set(1, col, "")
	assert.Equal(t, 1, tbl.PruneOrphans())
	assert.Equal(t, []string{"Apple"}, tbl.Column("Term_1"))
}

func TestPruneWithoutAttributionRemovesEverything(t *testing.T) {
	tbl := terms.New("Term_1")
	require.NoError(t, tbl.Append("Apple"))
	assert.Equal(t, 1, tbl.PruneOrphans())
	assert.True(t, tbl.Empty())
}

func TestDropColumn(t *testing.T) {
	tbl := terms.New("Code", "Term_1", "rsrc-1")
	require.NoError(t, tbl.Append("A", "Apple", "True"))

	assert.True(t, tbl.DropColumn("Term_1"))
	assert.False(t, tbl.DropColumn("Term_1"))
	assert.Equal(t, []string{"Code", "rsrc-1"}, tbl.Columns())
	assert.Equal(t, "True", tbl.Get(0, "rsrc-1"))
}

func TestNormalize(t *testing.T) {
	tbl := terms.New("rsrc-1", "search_index", "Term_1", "Code")
	require.NoError(t, tbl.Append("True", "x", "Apple", "A"))

	tbl.Normalize()
	assert.Equal(t, []string{"Code", "Term_1", "rsrc-1", "search_index"}, tbl.Columns())
	assert.Equal(t, map[string]string{"Code": "A", "Term_1": "Apple", "rsrc-1": "True", "search_index": "x"}, tbl.Row(0))
}

func TestRebuildIndex(t *testing.T) {
	tbl := terms.New("Code", "Term_1", "Term_2", "rsrc-1", "search_index")
	require.NoError(t, tbl.Append("A", "Apple", "", "True", "stale"))

	tbl.RebuildIndex()
	assert.Equal(t, "A||Apple||", tbl.Get(0, "search_index"))
	assert.Equal(t, "search_index", tbl.Columns()[len(tbl.Columns())-1])
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := terms.New("Term_1")
	require.NoError(t, tbl.Append("Apple"))
	clone := tbl.Clone()
	clone.Set(0, "Term_1", "Pear")
	clone.AddColumn("Code", "")
	assert.Equal(t, "Apple", tbl.Get(0, "Term_1"))
	assert.False(t, tbl.Has("Code"))

	var nilTable *terms.Table
	assert.Nil(t, nilTable.Clone())
	assert.True(t, nilTable.Empty())
}

func TestKeyOf(t *testing.T) {
	tbl := terms.New("Code", "Group")
	require.NoError(t, tbl.Append("a", "b"))
	require.NoError(t, tbl.Append("a|b", ""))
	assert.NotEqual(t, tbl.KeyOf(0, []string{"Code", "Group"}), tbl.KeyOf(1, []string{"Code", "Group"}))
	assert.Equal(t, "a", tbl.KeyOf(0, []string{"Code"}))
}

func TestIdentityOf(t *testing.T) {
	tbl := terms.New("Category", "Term_1")
	require.NoError(t, tbl.Append("fruit", "Apple"))
	require.NoError(t, tbl.Append("fruit", "Pear"))
	require.NoError(t, tbl.Append("", "Orange"))
	require.NoError(t, tbl.Append("", "Pear"))
	s := tbl.Schema()

	assert.Equal(t, tbl.IdentityOf(0, s), tbl.IdentityOf(1, s), "a set identifier decides identity")
	assert.NotEqual(t, tbl.IdentityOf(2, s), tbl.IdentityOf(3, s), "blank identifiers fall back to terms")
	assert.NotEqual(t, tbl.IdentityOf(1, s), tbl.IdentityOf(3, s))

	noIDs := terms.New("Term_1")
	require.NoError(t, noIDs.Append("Apple"))
	assert.Equal(t, noIDs.KeyOf(0, []string{"Term_1"}), noIDs.IdentityOf(0, noIDs.Schema()))
}
