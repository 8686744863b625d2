package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualLen(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"plain", "Mentor", 6},
		{"colored", "\x1b[31mnegative\x1b[0m", 8},
		{"stacked sequences", "\x1b[1m\x1b[32m+12\x1b[0m", 3},
		{"bar runes", "███▒▒░", 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, visualLen(tc.input))
		})
	}
}

func TestPad_MeasuresPrintedWidth(t *testing.T) {
	assert.Equal(t, "60%   ", pad("60%", 6))
	assert.Equal(t, "Infrastructure", pad("Infrastructure", 4), "no truncation")

	styled := pad("\x1b[31m60%\x1b[0m", 6)
	assert.Equal(t, 6, visualLen(styled))
	assert.True(t, strings.HasSuffix(styled, "   "))
}

func TestTable_RenderHeatmapRows(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("Category", "Neg", "Total")
	tbl.AddRow("Infrastructure", "58%", "12")
	tbl.AddRow("Mentor", "10%")
	tbl.AddRow("Trainer", "0%", "4", "ignored")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	require.Len(t, lines, 5, "header, rule and three rows")

	assert.True(t, strings.HasPrefix(lines[0], "Category      "))
	assert.Equal(t, strings.Repeat("─", len("Infrastructure")), strings.Fields(lines[1])[0])
	assert.Equal(t, "Mentor          10%", strings.TrimRight(lines[3], " "))
	assert.NotContains(t, lines[4], "ignored")

	// The second column starts at the same offset on every row.
	col := strings.Index(lines[0], "Neg")
	for _, l := range lines[2:] {
		assert.Contains(t, "0123456789", string(l[col]), l)
		assert.Equal(t, byte(' '), l[col-1], l)
	}
}

func TestTable_Empty(t *testing.T) {
	assert.Empty(t, NewTable().Render())

	tbl := NewTable("Week")
	assert.Zero(t, tbl.Len())
	assert.Equal(t, 2, strings.Count(tbl.Render(), "\n"))
}

func TestTable_FprintMatchesString(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("Week", "Entries")
	tbl.AddRow("2025-03-03", "41")

	var buf bytes.Buffer
	tbl.Fprint(&buf)
	assert.Equal(t, tbl.String(), buf.String())
	assert.Equal(t, tbl.Render(), tbl.String())
}

func TestTable_StyledCellsAlign(t *testing.T) {
	tbl := NewTable("Category", "Neg")
	tbl.AddRow("\x1b[31mMentor\x1b[0m", "60%")
	tbl.AddRow("Infrastructure", "10%")

	assert.Equal(t, 2, tbl.Len())
	// Widths come from the printed text, so ANSI codes do not widen columns.
	assert.Equal(t, len("Infrastructure"), tbl.widths[0])
}

func TestSetNoColor(t *testing.T) {
	SetNoColor(true)
	assert.True(t, IsNoColor())
	assert.NotContains(t, StyleHeader.Render("test"), "\x1b[")

	SetNoColor(false)
	assert.False(t, IsNoColor())
	assert.True(t, StyleHeader.GetBold(), "header style restored")
}
