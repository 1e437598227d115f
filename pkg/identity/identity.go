// Package identity derives the (patient id, person name) pair for a clinical
// document. Several historical filename conventions, directory layouts, and
// document payload formats are in circulation; each one is handled by a named
// resolution strategy, and a resolver dispatches them in a fixed priority
// order, stopping at the first strategy that produces a person name.
//
// Every strategy is total: it always returns a complete Resolution, using the
// unknown sentinel for anything it cannot determine, and never fails.
package identity

import (
	"go.uber.org/zap"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/roster"
)

// Resolution is the identity outcome for one document. Either field may be
// the unknown sentinel; a resolved name with an unknown id means the person
// was identified but is not on the roster.
type Resolution struct {
	PatientID  string
	PersonName string
}

// Resolved reports whether the resolution carries a person name.
func (r Resolution) Resolved() bool {
	return r.PersonName != document.Unknown && r.PersonName != ""
}

func unresolved() Resolution {
	return Resolution{PatientID: document.Unknown, PersonName: document.Unknown}
}

// Strategy is one identity-resolution heuristic. Implementations must be
// total and side-effect-free apart from diagnostics.
type Strategy interface {
	// Name identifies the strategy in diagnostics.
	Name() string
	// Resolve attempts to derive the identity for ref, whose category has
	// already been resolved. Failure is expressed through sentinels.
	Resolve(ref document.Ref, cat document.CategoryCode) Resolution
}

// Config carries the tunable constants of the built-in strategies.
type Config struct {
	// Offsets maps a category code to the token offset, counted from the
	// category marker token, where that category places the person name.
	// Only the listed categories use category-directed extraction.
	Offsets map[document.CategoryCode]int
	// DefaultOffset is the token index, counted from the start of the
	// filename, used by the positional fallback.
	DefaultOffset int
	// IDRoot is the OID that identifies the patient-id element inside
	// document content.
	IDRoot string
}

// DefaultIDRoot is the OID carried by the inpatient identifier element in
// conforming document payloads.
const DefaultIDRoot = "2.16.156.10011.1.12"

// DefaultConfig returns the production constants: the two report categories
// whose free-text type token shifts the name position, the standard name
// position for everything else, and the standard identifier OID.
func DefaultConfig() Config {
	return Config{
		Offsets: map[document.CategoryCode]int{
			"SD-11": 3,
			"SD-12": 3,
		},
		DefaultOffset: 4,
		IDRoot:        DefaultIDRoot,
	}
}

// Resolver dispatches the strategy chain.
type Resolver struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewResolver builds the standard four-strategy chain against the given
// roster: category-directed filename extraction, path-pattern extraction,
// positional filename fallback, and document-content extraction, in that
// order. A nil logger disables diagnostics.
func NewResolver(r *roster.Roster, cfg Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Offsets == nil {
		cfg.Offsets = DefaultConfig().Offsets
	}
	if cfg.DefaultOffset <= 0 {
		cfg.DefaultOffset = DefaultConfig().DefaultOffset
	}
	if cfg.IDRoot == "" {
		cfg.IDRoot = DefaultIDRoot
	}
	return &Resolver{
		strategies: []Strategy{
			&categoryOffsetStrategy{offsets: cfg.Offsets, roster: r, logger: logger},
			&pathPatternStrategy{},
			&positionalStrategy{offset: cfg.DefaultOffset, roster: r, logger: logger},
			&contentStrategy{root: cfg.IDRoot, roster: r, logger: logger},
		},
		logger: logger,
	}
}

// NewChain builds a resolver over an explicit strategy list, mainly for
// tests and custom pipelines. Strategies run in slice order.
func NewChain(logger *zap.Logger, strategies ...Strategy) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{strategies: strategies, logger: logger}
}

// Resolve runs the chain, returning the first resolution that carries a
// person name. A patient id produced by a later strategy takes effect only
// when no earlier strategy found one; the returned tuple is always complete.
func (rv *Resolver) Resolve(ref document.Ref, cat document.CategoryCode) Resolution {
	result := unresolved()
	for _, s := range rv.strategies {
		res := s.Resolve(ref, cat)
		if res.Resolved() {
			if res.PatientID == document.Unknown && result.PatientID != document.Unknown {
				res.PatientID = result.PatientID
			}
			rv.logger.Debug("identity resolved",
				zap.String("file", ref.Name),
				zap.String("strategy", s.Name()),
				zap.String("patient", res.PatientID),
			)
			return res
		}
		if res.PatientID != document.Unknown && result.PatientID == document.Unknown {
			result.PatientID = res.PatientID
		}
	}
	return result
}
