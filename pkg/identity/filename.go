package identity

import (
	"strings"

	"go.uber.org/zap"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/category"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/roster"
)

// categoryOffsetStrategy extracts the person name from the filename token at
// a per-category offset from the category marker. It only applies to the
// categories listed in its offset table; for every other category it yields
// the unknown tuple so the chain moves on.
type categoryOffsetStrategy struct {
	offsets map[document.CategoryCode]int
	roster  *roster.Roster
	logger  *zap.Logger
}

func (s *categoryOffsetStrategy) Name() string { return "category-offset" }

func (s *categoryOffsetStrategy) Resolve(ref document.Ref, cat document.CategoryCode) Resolution {
	offset, directed := s.offsets[cat]
	if !directed {
		return unresolved()
	}

	tokens := category.Tokens(ref.Name)
	marker := category.MarkerIndex(tokens)
	if marker < 0 || marker+offset >= len(tokens) {
		return unresolved()
	}

	name := strings.TrimSpace(tokens[marker+offset])
	if name == "" {
		return unresolved()
	}
	return lookupID(s.roster, name, ref, s.logger)
}

// positionalStrategy is the last-resort filename heuristic: the person name
// sits at a fixed token index from the start of the filename.
type positionalStrategy struct {
	offset int
	roster *roster.Roster
	logger *zap.Logger
}

func (s *positionalStrategy) Name() string { return "positional" }

func (s *positionalStrategy) Resolve(ref document.Ref, _ document.CategoryCode) Resolution {
	tokens := category.Tokens(ref.Name)
	if s.offset >= len(tokens) {
		return unresolved()
	}

	name := strings.TrimSpace(tokens[s.offset])
	if name == "" {
		return unresolved()
	}
	return lookupID(s.roster, name, ref, s.logger)
}

// lookupID completes a filename-derived name with the roster's patient id.
// A roster miss is a lookup miss, not a parse failure: the name stands and
// only the id degrades to the sentinel.
func lookupID(r *roster.Roster, name string, ref document.Ref, logger *zap.Logger) Resolution {
	if r != nil {
		if entry, ok := r.Lookup(name); ok {
			return Resolution{PatientID: entry.PatientID, PersonName: name}
		}
	}
	logger.Debug("roster lookup miss",
		zap.String("name", name),
		zap.String("file", ref.Name),
	)
	return Resolution{PatientID: document.Unknown, PersonName: name}
}
