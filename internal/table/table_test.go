package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.WithHeader([]string{"HEADER1", "H2", "h3"})
	table.WithColumnAlignment([]Alignment{AlignLeft, AlignRight, AlignLeft})
	table.WithHeaderAlignment([]Alignment{AlignCenter, AlignCenter, AlignRight})
	table.Append([]string{"ROW1", "ROW2", "foo bar"})
	table.Append([]string{"a", "b", "c"})
	table.Render()

	expected := `
+---------+------+---------+
| HEADER1 |  H2  |      h3 |
+---------+------+---------+
| ROW1    | ROW2 | foo bar |
| a       |    b | c       |
+---------+------+---------+
`
	require.Equal(t, strings.TrimSpace(expected)+"\n", buf.String())
}

func TestColoredTable(t *testing.T) {
	green := color.New(color.FgGreen)
	green.EnableColor()
	bold := color.New(color.Bold)
	bold.EnableColor()

	var buf bytes.Buffer
	table := NewTable(&buf)
	table.WithHeader([]string{"HEADER1", "HEADER2", "HEADER3"})
	table.WithColumnAlignment([]Alignment{AlignLeft, AlignRight, AlignLeft})
	table.Append([]string{bold.Sprint("Bold text"), "12345", green.Sprint("Green text")})
	table.Append([]string{"Normal", bold.Sprint("999"), green.Sprint("More color")})
	table.Render()

	// Color codes must not break alignment.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.True(t, len(lines) >= 5)
	expected := len(lines[0])
	for i := 1; i < len(lines); i++ {
		require.Equal(t, expected, len(stripAnsi(lines[i])), "line %d", i)
	}
}

func TestEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).Render()
	require.Equal(t, "", buf.String())
}

func TestRaggedRows(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).
		WithHeader([]string{"A", "B"}).
		Append([]string{"1"}).
		Append([]string{"2", "3", "4"}).
		Render()
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	width := len(lines[0])
	for i, line := range lines {
		require.Equal(t, width, len(line), "line %d", i)
	}
}
