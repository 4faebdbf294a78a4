package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"quoted comma", `2024-11-12,Globex,"Brochure, 4 pages",2500`, []string{"2024-11-12", "Globex", "Brochure, 4 pages", "2500"}},
		{"empty line", "", []string{""}},
		{"trims fields", "  a ,\tb  , c", []string{"a", "b", "c"}},
		{"empty fields kept", "a,,b,", []string{"a", "", "b", ""}},
		{"unbalanced quote", `"open,still open`, []string{"open,still open"}},
		{"doubled quotes vanish", `say ""hi""`, []string{"say hi"}},
		{"quotes mid field", `ab"c,d"e,f`, []string{"abc,de", "f"}},
		{"only commas", ",,", []string{"", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLine(tt.line))
		})
	}
}

func TestSplitDocument(t *testing.T) {
	t.Run("skips header and blank lines", func(t *testing.T) {
		rows := SplitDocument("h1,h2\r\na,b\r\n\r\n   \nc,d\n")

		assert.Equal(t, []Row{
			{Line: 0, Fields: []string{"a", "b"}},
			{Line: 3, Fields: []string{"c", "d"}},
		}, rows)
	})

	t.Run("leading blank lines are trimmed before the header", func(t *testing.T) {
		rows := SplitDocument("\n\nh\nx")
		assert.Equal(t, []Row{{Line: 0, Fields: []string{"x"}}}, rows)
	})

	t.Run("header only", func(t *testing.T) {
		assert.Empty(t, SplitDocument("Date,Client"))
	})

	t.Run("empty document", func(t *testing.T) {
		assert.Empty(t, SplitDocument(""))
		assert.Empty(t, SplitDocument(" \n \n"))
	})
}

func TestRowsFromValues(t *testing.T) {
	values := [][]string{
		{"Date", "Client"},
		{"2024-11-01", " Acme "},
		{},
		{"", ""},
		{"2024-11-02"},
	}

	assert.Equal(t, []Row{
		{Line: 0, Fields: []string{"2024-11-01", "Acme"}},
		{Line: 3, Fields: []string{"2024-11-02"}},
	}, RowsFromValues(values))
	assert.Empty(t, RowsFromValues(nil))
}

func TestRowField(t *testing.T) {
	r := Row{Fields: []string{"a"}}
	assert.Equal(t, "a", r.Field(0))
	assert.Equal(t, "", r.Field(4))
}
