package output_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/crossdrop/internal/output"
)

func TestTable_Basic(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable("RECIPIENT", "AMOUNT")
	tbl.AddRow("0xaaaa", "1.5")
	tbl.AddRow("0xbb", "10")

	want := "RECIPIENT  AMOUNT\n" +
		"---------  ------\n" +
		"0xaaaa     1.5\n" +
		"0xbb       10\n"
	assert.Equal(t, want, tbl.String())
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_AlignRight(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable("WHO", "AMOUNT")
	tbl.AlignRight(1)
	tbl.AddRow("alice", "1.5")
	tbl.AddRow("bob", "100.25")

	lines := strings.Split(strings.TrimSuffix(tbl.String(), "\n"), "\n")
	assert.Equal(t, "WHO    AMOUNT", lines[0])
	assert.Equal(t, "alice     1.5", lines[2])
	assert.Equal(t, "bob    100.25", lines[3])
}

func TestTable_NoHeader(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable("A", "B")
	tbl.SetNoHeader(true)
	tbl.AddRow("1", "2")
	assert.Equal(t, "1  2\n", tbl.String())
}

func TestTable_Separator(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable("A", "B")
	tbl.SetSeparator(" | ")
	tbl.AddRow("x", "y")
	assert.Equal(t, "A | B\n- | -\nx | y\n", tbl.String())
}

func TestTable_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, output.NewTable().String())

	headersOnly := output.NewTable("A", "B")
	assert.Equal(t, "A  B\n-  -\n", headersOnly.String())
}

func TestTable_RaggedRows(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable("A")
	tbl.AddRow("1", "extra")
	tbl.AddRow()
	assert.Equal(t, "A\n-  -----\n1  extra\n\n", tbl.String())
}

func TestTable_Unicode(t *testing.T) {
	t.Parallel()
	tbl := output.NewTable("NAME", "X")
	tbl.AddRow("héllo", "1")
	tbl.AddRow("ab", "2")

	lines := strings.Split(tbl.String(), "\n")
	assert.Equal(t, "héllo  1", lines[2])
	assert.Equal(t, "ab     2", lines[3])
}
