// Package roster loads the reference patient roster from a tabular file and
// provides name and identifier lookups for the resolution pipeline and the
// auditor. A roster is loaded once per run and is read-only afterward.
package roster

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// headerRowOffset converts a 0-based data-row index into the row number a
// human sees in the source file: row 1 is the header, data starts at row 2.
const headerRowOffset = 2

// DefaultNameColumn and DefaultIDColumn are the header names used by the
// upstream patient list exports.
const (
	DefaultNameColumn = "姓名"
	DefaultIDColumn   = "住院流水号"
)

// Entry is a single roster row: a person name bound to a patient identifier,
// with the row number it came from in the source file.
type Entry struct {
	Name      string
	PatientID string
	Row       int
}

// Options controls how the tabular source is interpreted.
type Options struct {
	// Sheet selects the worksheet for spreadsheet sources; empty means the
	// first sheet. Ignored for CSV sources.
	Sheet string
	// NameColumn and IDColumn are the header names of the person-name and
	// patient-identifier columns. Empty values fall back to the defaults.
	NameColumn string
	IDColumn   string
}

func (o Options) withDefaults() Options {
	if o.NameColumn == "" {
		o.NameColumn = DefaultNameColumn
	}
	if o.IDColumn == "" {
		o.IDColumn = DefaultIDColumn
	}
	return o
}

// Roster is the loaded mapping. Name lookups follow the source file's
// last-wins semantics for duplicate names; shadowed rows are retained so
// callers can report the ambiguity instead of losing it silently.
type Roster struct {
	byName   map[string]Entry
	rowsByID map[string][]Entry
	shadowed []Entry
	rowCount int
}

// Load reads a roster from path. The format is chosen by extension:
// .xlsx is read as a spreadsheet, .csv as comma-separated text.
func Load(path string, opts Options) (*Roster, error) {
	opts = opts.withDefaults()

	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path, opts.Sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows, opts)
}

func fromRows(rows [][]string, opts Options) (*Roster, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster is empty: no header row")
	}

	nameCol, idCol := -1, -1
	for i, header := range rows[0] {
		switch strings.TrimSpace(header) {
		case opts.NameColumn:
			nameCol = i
		case opts.IDColumn:
			idCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("roster is missing column %q", opts.NameColumn)
	}
	if idCol < 0 {
		return nil, fmt.Errorf("roster is missing column %q", opts.IDColumn)
	}

	r := &Roster{
		byName:   make(map[string]Entry),
		rowsByID: make(map[string][]Entry),
	}

	for i, row := range rows[1:] {
		entry := Entry{
			Name:      cell(row, nameCol),
			PatientID: cell(row, idCol),
			Row:       i + headerRowOffset,
		}
		if entry.Name == "" && entry.PatientID == "" {
			continue // trailing blank row
		}
		r.rowCount++

		if prev, dup := r.byName[entry.Name]; dup {
			r.shadowed = append(r.shadowed, prev)
		}
		r.byName[entry.Name] = entry
		r.rowsByID[entry.PatientID] = append(r.rowsByID[entry.PatientID], entry)
	}

	return r, nil
}

// cell returns the trimmed cell value at col, or the empty string when the
// row is shorter than the header. Empty cells are never nil.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Lookup returns the roster entry for a person name.
func (r *Roster) Lookup(name string) (Entry, bool) {
	entry, ok := r.byName[name]
	return entry, ok
}

// NameForID returns a person name carrying the given patient identifier.
// When several rows share the identifier the earliest row's name is returned.
func (r *Roster) NameForID(id string) (string, bool) {
	entries := r.rowsByID[id]
	if len(entries) == 0 {
		return "", false
	}
	return entries[0].Name, true
}

// RowsForID returns every roster row carrying the given patient identifier,
// in source order. The auditor uses this to report row numbers.
func (r *Roster) RowsForID(id string) []Entry {
	return r.rowsByID[id]
}

// IDs returns the distinct patient identifiers on the roster, sorted.
func (r *Roster) IDs() []string {
	ids := make([]string, 0, len(r.rowsByID))
	for id := range r.rowsByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of data rows read, duplicates included.
func (r *Roster) Len() int {
	return r.rowCount
}

// Names returns the number of distinct person names.
func (r *Roster) Names() int {
	return len(r.byName)
}

// Shadowed returns the rows that were overwritten by a later row with the
// same person name, in source order.
func (r *Roster) Shadowed() []Entry {
	return r.shadowed
}
