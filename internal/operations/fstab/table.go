package fstab

import (
	"regexp"
	"strings"
)

var fieldPattern = regexp.MustCompile(`\S+`)

// Table is a parsed mount table. Parsing keeps the original lines intact so
// edits touch only the targeted entry and every other byte survives
// unchanged.
type Table struct {
	lines []string
}

// Entry is one non-comment row of the table, addressed by line index so a
// scoped rewrite can reconstruct the file around it.
type Entry struct {
	lineIndex int
	line      string
	fields    [][]int
}

// ParseTable splits mount table content into editable lines.
func ParseTable(content string) *Table {
	return &Table{lines: strings.Split(content, "\n")}
}

// EntryFor returns the entry whose filesystem spec (first field) matches
// exactly. Comments and blank lines never match, and neither do rows that
// merely mention the spec somewhere else in their text.
func (t *Table) EntryFor(spec string) (*Entry, bool) {
	for i, line := range t.lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := fieldPattern.FindAllStringIndex(line, -1)
		if len(fields) < 4 {
			continue
		}
		if line[fields[0][0]:fields[0][1]] == spec {
			return &Entry{lineIndex: i, line: line, fields: fields}, true
		}
	}
	return nil, false
}

// Options returns the entry's mount options field.
func (e *Entry) Options() string {
	f := e.fields[3]
	return e.line[f[0]:f[1]]
}

// HasOption reports whether the options field contains the named option as
// a whole comma-separated token.
func (e *Entry) HasOption(name string) bool {
	for _, opt := range strings.Split(e.Options(), ",") {
		if opt == name {
			return true
		}
	}
	return false
}

// WithOption returns the entry's line with the option appended to the
// options field, leaving every other byte of the line untouched.
func (e *Entry) WithOption(name string) string {
	if e.HasOption(name) {
		return e.line
	}
	f := e.fields[3]
	return e.line[:f[1]] + "," + name + e.line[f[1]:]
}

// ReplaceLine returns the full table content with one line swapped out.
func (t *Table) ReplaceLine(entry *Entry, newLine string) string {
	lines := make([]string, len(t.lines))
	copy(lines, t.lines)
	lines[entry.lineIndex] = newLine
	return strings.Join(lines, "\n")
}
