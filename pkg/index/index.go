// Package index builds and exposes the reconciliation index: the grouping of
// every resolvable document by patient identifier and category. The index is
// built in a single pass over the enumerated file list, is append-only during
// that pass, and read-only afterward; every downstream view (full archive,
// bounded sample, validation corpus) is derived from it.
package index

import (
	"sort"

	"go.uber.org/zap"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/category"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/identity"
)

// Skipped records a document that was dropped from every downstream view.
// Dropping happens in exactly one place: a document whose person name could
// not be resolved by any strategy.
type Skipped struct {
	Ref    document.Ref
	Reason string
}

// Index is the reconciliation index. Buckets preserve discovery order within
// each (patient, category) list.
type Index struct {
	buckets map[string]map[document.CategoryCode][]document.Ref
	names   map[string]string
	skipped []Skipped
	total   int
}

// Builder folds resolved documents into an Index.
type Builder struct {
	resolver *identity.Resolver
	logger   *zap.Logger
}

// NewBuilder wires a builder to an identity resolver. A nil logger disables
// diagnostics.
func NewBuilder(resolver *identity.Resolver, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{resolver: resolver, logger: logger}
}

// Build resolves every file once and produces the index. Documents without a
// resolvable person name are recorded as skipped; documents with a name but
// no patient id are inserted under the unknown-identifier bucket so they stay
// visible downstream instead of being lost.
func (b *Builder) Build(files []document.Ref) *Index {
	idx := &Index{
		buckets: make(map[string]map[document.CategoryCode][]document.Ref),
		names:   make(map[string]string),
		total:   len(files),
	}

	for _, ref := range files {
		cat := category.Resolve(ref.Name)
		res := b.resolver.Resolve(ref, cat)

		if !res.Resolved() {
			idx.skipped = append(idx.skipped, Skipped{Ref: ref, Reason: "no resolvable person name"})
			b.logger.Warn("document skipped: no resolvable person name",
				zap.String("file", ref.Name),
			)
			continue
		}
		if res.PatientID == document.Unknown {
			b.logger.Warn("document archived without patient id",
				zap.String("file", ref.Name),
				zap.String("name", res.PersonName),
			)
		}

		idx.append(res.PatientID, res.PersonName, cat, ref)
	}

	return idx
}

func (idx *Index) append(patientID, personName string, cat document.CategoryCode, ref document.Ref) {
	byCategory, ok := idx.buckets[patientID]
	if !ok {
		byCategory = make(map[document.CategoryCode][]document.Ref)
		idx.buckets[patientID] = byCategory
	}
	byCategory[cat] = append(byCategory[cat], ref)

	if _, ok := idx.names[patientID]; !ok {
		idx.names[patientID] = personName
	}
}

// PatientIDs returns every patient identifier in the index, sorted, so that
// materialization order is reproducible.
func (idx *Index) PatientIDs() []string {
	ids := make([]string, 0, len(idx.buckets))
	for id := range idx.buckets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Name returns the person name recorded for a patient identifier (the first
// one resolved during the build pass).
func (idx *Index) Name(patientID string) string {
	if name, ok := idx.names[patientID]; ok {
		return name
	}
	return document.Unknown
}

// Categories returns the categories present for a patient, sorted.
func (idx *Index) Categories(patientID string) []document.CategoryCode {
	byCategory := idx.buckets[patientID]
	cats := make([]document.CategoryCode, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// Files returns the refs for one (patient, category) bucket in discovery
// order. The returned slice is the index's own; callers must not mutate it.
func (idx *Index) Files(patientID string, cat document.CategoryCode) []document.Ref {
	return idx.buckets[patientID][cat]
}

// Skipped returns the documents dropped during the build pass.
func (idx *Index) Skipped() []Skipped {
	return idx.skipped
}

// Total returns the number of enumerated input documents, inserted and
// skipped together. Total == Inserted() + len(Skipped()) always holds.
func (idx *Index) Total() int {
	return idx.total
}

// Inserted returns the number of documents placed into buckets.
func (idx *Index) Inserted() int {
	return idx.total - len(idx.skipped)
}

// Patients returns the number of distinct patient buckets.
func (idx *Index) Patients() int {
	return len(idx.buckets)
}
