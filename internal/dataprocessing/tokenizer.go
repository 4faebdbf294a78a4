package dataprocessing

import "strings"

// Row is one tokenized body line of a feed. Line is the zero-based index of
// the line among all lines after the header, blank lines included.
type Row struct {
	Line   int
	Fields []string
}

// Field returns the i-th field or "" when the row is shorter
func (r Row) Field(i int) string {
	if i < len(r.Fields) {
		return r.Fields[i]
	}
	return ""
}

// SplitLine splits one CSV line into trimmed fields. A double quote toggles
// quoted mode and is never emitted; commas inside quotes are kept. The last
// field is always appended, so an empty line yields a single empty field.
// Unbalanced quotes are tolerated.
func SplitLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}

// SplitDocument splits a whole feed into body rows. The document is trimmed
// and split on newlines; the first line is the header and is skipped, blank
// lines are skipped but still advance Row.Line.
func SplitDocument(text string) []Row {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	rows := make([]Row, 0, len(lines))

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		rows = append(rows, Row{Line: i - 1, Fields: SplitLine(line)})
	}

	return rows
}

// RowsFromValues converts a grid of cells (header first) into body rows
// using the same indexing as SplitDocument. Rows with no non-empty cell are
// treated as blank lines.
func RowsFromValues(values [][]string) []Row {
	rows := make([]Row, 0, len(values))

	for i := 1; i < len(values); i++ {
		fields := make([]string, len(values[i]))
		blank := true
		for j, cell := range values[i] {
			fields[j] = strings.TrimSpace(cell)
			if fields[j] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, Row{Line: i - 1, Fields: fields})
	}

	return rows
}
