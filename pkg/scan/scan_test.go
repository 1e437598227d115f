package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func seedTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<doc/>"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestWalkFiltersByExtension(t *testing.T) {
	root := seedTree(t,
		"a/one.xml",
		"a/two.XML",
		"a/skip.txt",
		"b/c/three.xml",
		"notes.md",
	)

	refs, err := Walk(root, Options{})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("got %d refs, want 3: %v", len(refs), refs)
	}
	for _, ref := range refs {
		if ref.Name == "skip.txt" || ref.Name == "notes.md" {
			t.Errorf("non-candidate file enumerated: %s", ref.Name)
		}
	}
}

func TestWalkPatterns(t *testing.T) {
	root := seedTree(t,
		"batch1/doc.xml",
		"batch2/doc.xml",
		"other/doc.xml",
	)

	refs, err := Walk(root, Options{Patterns: []string{"batch*/**"}})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2: %v", len(refs), refs)
	}
}

func TestWalkInvalidPattern(t *testing.T) {
	root := seedTree(t, "a.xml")
	if _, err := Walk(root, Options{Patterns: []string{"[bad"}}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestWalkMissingRootFails(t *testing.T) {
	if _, err := Walk(filepath.Join(t.TempDir(), "absent"), Options{}); err == nil {
		t.Error("expected error for missing source directory")
	}
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := seedTree(t, "z.xml", "a.xml", "m/inner.xml")

	first, err := Walk(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Walk(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs disagree on count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("position %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
}
