// Package category derives a canonical document-category code from a clinical
// document filename. Filenames follow several historical naming conventions;
// the resolver tolerates all of them and returns an explicit unknown sentinel
// when no marker is present.
package category

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
)

// Marker is the category prefix used by every known naming convention,
// e.g. "EMR-SD-04-西药处方-李凤存-T01-001.xml" carries category SD-04.
const Marker = "SD"

// Separator is the token delimiter used throughout source filenames.
const Separator = "-"

var fusedPattern = regexp.MustCompile(`(?i)^` + Marker + `\d+$`)

// Tokens splits a filename into its delimiter-separated tokens with the file
// extension removed. The split is purely lexical; callers interpret positions.
func Tokens(filename string) []string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.Split(base, Separator)
}

// MarkerIndex returns the index of the category marker token within tokens.
// It recognizes both the delimited form (a bare "SD" token followed by an
// all-digit token) and the fused form ("SD04" as a single token). Returns -1
// when no marker is present. Matching is case-insensitive.
func MarkerIndex(tokens []string) int {
	for i, tok := range tokens {
		if strings.EqualFold(tok, Marker) && i+1 < len(tokens) && isDigits(tokens[i+1]) {
			return i
		}
	}
	for i, tok := range tokens {
		if fusedPattern.MatchString(tok) {
			return i
		}
	}
	return -1
}

// Resolve derives the canonical category code from a filename. It scans the
// filename's tokens for a category marker using two conventions in priority
// order: the delimited form yields "SD-<digits>", the fused form is returned
// verbatim upper-cased. With no marker the unknown sentinel is returned.
// Resolve is pure and never fails.
func Resolve(filename string) document.CategoryCode {
	tokens := Tokens(filename)
	for i, tok := range tokens {
		if strings.EqualFold(tok, Marker) && i+1 < len(tokens) && isDigits(tokens[i+1]) {
			return document.CategoryCode(strings.ToUpper(tok) + Separator + tokens[i+1])
		}
	}
	for _, tok := range tokens {
		if fusedPattern.MatchString(tok) {
			return document.CategoryCode(strings.ToUpper(tok))
		}
	}
	return document.CategoryUnknown
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
