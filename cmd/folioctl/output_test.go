package main

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/client"
)

func TestPrintTable(t *testing.T) {
	form, ok := client.FormFor("skills")
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, printTable(&buf, form, []client.Document{
		{"_id": "1", "name": "Go", "type": "tech", "category": "Backend", "level": "Expert"},
		{"_id": "2", "name": "Negotiation", "type": "softskill", "level": "Advanced"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[0], "CATEGORY")
	assert.Contains(t, lines[1], "Backend")
	assert.Contains(t, lines[2], "Negotiation")

	buf.Reset()
	require.NoError(t, printTable(&buf, form, nil))
	assert.Equal(t, "No skills yet\n", buf.String())
}

func TestCell(t *testing.T) {
	assert.Equal(t, "Go, Gin", cell([]any{"Go", "Gin"}))
	assert.Equal(t, "42", cell(float64(42)))
	assert.Equal(t, "", cell(nil))
	assert.Equal(t, "a b", cell("a\nb"))
	long := strings.Repeat("x", 100)
	assert.Len(t, []rune(cell(long)), maxCellWidth)
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false}
	for input, want := range cases {
		var out bytes.Buffer
		got := confirm(bufio.NewReader(strings.NewReader(input)), &out, "Delete?")
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Delete? [y/N]: ", out.String())
	}
}

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	snap := client.Snapshot{
		Profile: client.Document{"name": "Jane"},
		Skills:  []client.Document{{}, {}},
		Blogs:   []client.Document{},
		Failed:  []string{"blogs"},
		Errors:  map[string]error{"blogs": errors.New("timeout")},
	}
	require.NoError(t, printSnapshot(&buf, snap))
	out := buf.String()
	assert.Contains(t, out, "failed: timeout")
	assert.Regexp(t, `skills\s+2\s+ok`, out)
	assert.Regexp(t, `profile\s+1\s+ok`, out)
}
