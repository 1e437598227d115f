package identity

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
)

// patientDirPattern matches a directory segment of the form
// "<letters><digits>-<name>", the layout an earlier organizing pass produces
// when it has already grouped files under per-patient directories.
var patientDirPattern = regexp.MustCompile(`^([A-Za-z]+\d+)-(.+)$`)

// pathPatternStrategy recovers both the patient id and the person name from
// the document's directory path. When it matches, the roster is bypassed
// entirely: the path is the authority.
type pathPatternStrategy struct{}

func (s *pathPatternStrategy) Name() string { return "path-pattern" }

func (s *pathPatternStrategy) Resolve(ref document.Ref, _ document.CategoryCode) Resolution {
	dir := filepath.Dir(ref.Path)
	segments := strings.Split(filepath.ToSlash(dir), "/")

	// Deeper segments are more specific; scan upward from the file.
	for i := len(segments) - 1; i >= 0; i-- {
		m := patientDirPattern.FindStringSubmatch(segments[i])
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[2])
		if name == "" {
			continue
		}
		return Resolution{PatientID: m[1], PersonName: name}
	}
	return unresolved()
}
