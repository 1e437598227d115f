// Package audit reconciles the patient roster against the archived patient
// set. It is a read-only pass: the archive's top-level directory names are
// the archive's source of truth, and the roster supplies row numbers so a
// missing patient can be traced back to the source file.
package audit

import (
	"fmt"
	"io"
	"sort"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/roster"
)

// RowRef ties a patient identifier back to one roster row.
type RowRef struct {
	Row  int
	Name string
}

// MissingID is a roster identifier with no archive directory. An identifier
// may appear on several roster rows; every one is reported.
type MissingID struct {
	ID   string
	Rows []RowRef
}

// Report is the reconciliation outcome.
type Report struct {
	RosterRows int
	RosterIDs  int
	ArchiveIDs int
	Missing    []MissingID
	Extra      []string
}

// Reconcile computes missing = roster − archive and extra = archive − roster.
// Both result lists are sorted by identifier for stable output.
func Reconcile(r *roster.Roster, archiveIDs map[string]bool) *Report {
	report := &Report{
		RosterRows: r.Len(),
		ArchiveIDs: len(archiveIDs),
	}

	rosterIDs := r.IDs()
	report.RosterIDs = len(rosterIDs)

	for _, id := range rosterIDs {
		if archiveIDs[id] {
			continue
		}
		missing := MissingID{ID: id}
		for _, entry := range r.RowsForID(id) {
			missing.Rows = append(missing.Rows, RowRef{Row: entry.Row, Name: entry.Name})
		}
		report.Missing = append(report.Missing, missing)
	}

	rosterSet := make(map[string]bool, len(rosterIDs))
	for _, id := range rosterIDs {
		rosterSet[id] = true
	}
	for id := range archiveIDs {
		if !rosterSet[id] {
			report.Extra = append(report.Extra, id)
		}
	}
	sort.Strings(report.Extra)

	return report
}

// Clean reports whether the roster and the archive agree exactly.
func (r *Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0
}

// Print writes the human-readable reconciliation report.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "Roster reconciliation:")
	fmt.Fprintf(w, "  roster rows:         %d\n", r.RosterRows)
	fmt.Fprintf(w, "  distinct roster ids: %d\n", r.RosterIDs)
	fmt.Fprintf(w, "  archived ids:        %d\n", r.ArchiveIDs)
	fmt.Fprintf(w, "  missing:             %d\n", len(r.Missing))
	fmt.Fprintf(w, "  extra:               %d\n", len(r.Extra))

	if len(r.Missing) > 0 {
		fmt.Fprintln(w, "\nMissing from archive (with roster row numbers):")
		for _, m := range r.Missing {
			for _, row := range m.Rows {
				fmt.Fprintf(w, "  row %d -> %s %s\n", row.Row, m.ID, row.Name)
			}
		}
	}

	if len(r.Extra) > 0 {
		fmt.Fprintln(w, "\nIn archive but not on the roster:")
		for _, id := range r.Extra {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
}
