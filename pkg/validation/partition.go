// Package validation derives the validation corpus: the bounded sample's
// files pooled by category only (patient identity is discarded here) and
// split into balanced batches when a category exceeds the batch cap.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/archive"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
)

// DefaultBatchMax is the maximum number of files in one validation batch.
const DefaultBatchMax = 100

// Summary reports the outcome for one category.
type Summary struct {
	Category document.CategoryCode
	Files    int
	Batches  int
}

// Batch is one computed slice of a category's pooled file list.
type Batch struct {
	Category document.CategoryCode
	Index    int
	Files    []document.Ref
}

// SplitSizes computes the balanced batch sizes for n files under a batch cap
// of max. For n <= max there is a single batch of n. Otherwise the number of
// batches is ceil(n/max) and sizes differ by at most one, summing to exactly
// n, so no batch is ever empty or oversized the way naive fixed-size chunking
// leaves a runt batch.
func SplitSizes(n, max int) []int {
	if n <= 0 {
		return nil
	}
	if n <= max {
		return []int{n}
	}

	num := (n + max - 1) / max
	base := n / num
	remainder := n % num

	sizes := make([]int, num)
	for i := range sizes {
		sizes[i] = base
		if i < remainder {
			sizes[i]++
		}
	}
	return sizes
}

// SplitBatches applies SplitSizes to a pooled file list, preserving input
// order. Batch indexes are 1-based to match the on-disk subdirectory names.
func SplitBatches(cat document.CategoryCode, files []document.Ref, max int) []Batch {
	sizes := SplitSizes(len(files), max)
	batches := make([]Batch, 0, len(sizes))
	offset := 0
	for i, size := range sizes {
		batches = append(batches, Batch{
			Category: cat,
			Index:    i + 1,
			Files:    files[offset : offset+size],
		})
		offset += size
	}
	return batches
}

// Partition pools every file under <dst>/2.sample by category and writes the
// validation corpus under <dst>/3.validation. Categories at or under max go
// directly into the category directory; larger categories are split into
// numbered batch subdirectories 1..n. Returns per-category summaries sorted
// by category. A max of zero or less means DefaultBatchMax.
func Partition(dst string, max int) ([]Summary, error) {
	if max <= 0 {
		max = DefaultBatchMax
	}

	pooled, err := poolByCategory(filepath.Join(dst, archive.SampleDir))
	if err != nil {
		return nil, err
	}

	cats := make([]document.CategoryCode, 0, len(pooled))
	for cat := range pooled {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	validationRoot := filepath.Join(dst, archive.ValidationDir)
	summaries := make([]Summary, 0, len(cats))

	for _, cat := range cats {
		files := pooled[cat]
		catDir := filepath.Join(validationRoot, string(cat))
		batches := SplitBatches(cat, files, max)

		for _, batch := range batches {
			dir := catDir
			if len(batches) > 1 {
				dir = filepath.Join(catDir, strconv.Itoa(batch.Index))
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", dir, err)
			}
			for _, ref := range batch.Files {
				if err := archive.CopyFile(ref.Path, filepath.Join(dir, ref.Name)); err != nil {
					return nil, fmt.Errorf("failed to copy %s: %w", ref.Path, err)
				}
			}
		}

		summaries = append(summaries, Summary{
			Category: cat,
			Files:    len(files),
			Batches:  len(batches),
		})
	}

	return summaries, nil
}

// poolByCategory walks <sample>/<patient>/<category>/<file> and groups files
// by the category directory name. Directory listings are sorted, so pooling
// order (and therefore batch numbering) is stable across runs.
func poolByCategory(sampleRoot string) (map[document.CategoryCode][]document.Ref, error) {
	patients, err := os.ReadDir(sampleRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list sample %s: %w", sampleRoot, err)
	}

	pooled := make(map[document.CategoryCode][]document.Ref)
	for _, patient := range patients {
		if !patient.IsDir() {
			continue
		}
		patientPath := filepath.Join(sampleRoot, patient.Name())
		cats, err := os.ReadDir(patientPath)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", patientPath, err)
		}
		for _, catEntry := range cats {
			if !catEntry.IsDir() {
				continue
			}
			cat := document.CategoryCode(catEntry.Name())
			catPath := filepath.Join(patientPath, catEntry.Name())
			files, err := os.ReadDir(catPath)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", catPath, err)
			}
			for _, file := range files {
				if file.IsDir() {
					continue
				}
				pooled[cat] = append(pooled[cat], document.NewRef(filepath.Join(catPath, file.Name())))
			}
		}
	}
	return pooled, nil
}
