// Package document defines the core value types shared by the resolution and
// reconciliation pipeline: file references, category codes, and the resolved
// identity tuple. All types are immutable value types.
package document

import "path/filepath"

// Unknown is the sentinel for any field that could not be resolved. It is a
// first-class value, distinct from the empty string: every resolver returns a
// complete tuple and uses Unknown where resolution failed.
const Unknown = "UNKNOWN"

// CategoryCode is a canonical clinical document category, either in delimited
// form ("SD-04"), fused form taken verbatim from the source ("SD04"), or
// CategoryUnknown when the filename carries no recognizable marker.
type CategoryCode string

// CategoryUnknown marks a document whose category could not be determined.
const CategoryUnknown = CategoryCode(Unknown)

// IsUnknown reports whether the code is the unknown sentinel.
func (c CategoryCode) IsUnknown() bool {
	return c == CategoryUnknown
}

// Ref identifies a single candidate document by its absolute source path.
// Identity is the path; two refs with equal paths refer to the same document.
type Ref struct {
	Path string
	Name string
}

// NewRef builds a Ref from a source path.
func NewRef(path string) Ref {
	return Ref{Path: path, Name: filepath.Base(path)}
}

// Resolved is the outcome of running a document through the category and
// identity resolvers. Every field is always populated; resolution failures
// surface as Unknown, never as an absent value.
type Resolved struct {
	Ref        Ref
	Category   CategoryCode
	PatientID  string
	PersonName string
}

// HasName reports whether a person name was resolved for the document.
func (r Resolved) HasName() bool {
	return r.PersonName != Unknown && r.PersonName != ""
}
