// Package archive materializes the reconciliation index on disk: the full
// per-patient archive and the bounded per-bucket sample. Directory creation
// is idempotent and same-named copies overwrite, so re-running a pipeline is
// safe at the file level.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/index"
)

// Fixed directory names of the three derived views. Downstream tooling
// depends on these exact names.
const (
	FullDir       = "1.full"
	SampleDir     = "2.sample"
	ValidationDir = "3.validation"
)

// DefaultSampleCap is the per-(patient, category) document cap of the
// bounded sample.
const DefaultSampleCap = 10

// Writer materializes index views under a destination root.
type Writer struct {
	dst string
}

// NewWriter returns a writer rooted at dst. Nothing is created until a
// build method runs.
func NewWriter(dst string) *Writer {
	return &Writer{dst: dst}
}

// Dst returns the destination root.
func (w *Writer) Dst() string {
	return w.dst
}

// BuildFull mirrors the whole index into
// <dst>/1.full/<patient>-<name>/<category>/<filename> and returns the number
// of files copied. Filesystem failures are fatal and abort the build.
func (w *Writer) BuildFull(idx *index.Index) (int, error) {
	return w.materialize(idx, FullDir, 0)
}

// BuildSample copies at most limit documents per (patient, category) bucket,
// in discovery order, into <dst>/2.sample/. A limit of zero or less means
// DefaultSampleCap. Returns the number of files copied.
func (w *Writer) BuildSample(idx *index.Index, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultSampleCap
	}
	return w.materialize(idx, SampleDir, limit)
}

// materialize walks the index in sorted patient and category order, copying
// each bucket's files (all of them, or the first limit when limit > 0).
func (w *Writer) materialize(idx *index.Index, view string, limit int) (int, error) {
	copied := 0
	for _, patientID := range idx.PatientIDs() {
		patientDir := PatientDirName(patientID, idx.Name(patientID))
		for _, cat := range idx.Categories(patientID) {
			files := idx.Files(patientID, cat)
			if limit > 0 && len(files) > limit {
				files = files[:limit]
			}

			dir := filepath.Join(w.dst, view, patientDir, string(cat))
			if err := os.MkdirAll(dir, 0755); err != nil {
				return copied, fmt.Errorf("failed to create %s: %w", dir, err)
			}
			for _, ref := range files {
				if err := CopyFile(ref.Path, filepath.Join(dir, ref.Name)); err != nil {
					return copied, fmt.Errorf("failed to copy %s: %w", ref.Path, err)
				}
				copied++
			}
		}
	}
	return copied, nil
}

// PatientDirName is the directory name format shared by the archive views
// and parsed back by PatientIDs.
func PatientDirName(patientID, personName string) string {
	return patientID + "-" + personName
}

// PatientIDs lists the patient identifiers present in an existing full
// archive by reading its top-level directory names (prefix up to the first
// delimiter). This is the auditor's view of the archive.
func PatientIDs(dst string) (map[string]bool, error) {
	fullPath := filepath.Join(dst, FullDir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive %s: %w", fullPath, err)
	}

	ids := make(map[string]bool)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, _, _ := strings.Cut(entry.Name(), "-")
		id = strings.TrimSpace(id)
		if id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}

// SortedIDs returns the keys of an id set in sorted order.
func SortedIDs(ids map[string]bool) []string {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)
	return sorted
}

// CopyFile copies src to dst, overwriting dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
