package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/identity"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/index"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/roster"
)

// buildIndex creates source files on disk and runs them through the real
// builder so copies have bytes to read.
func buildIndex(t *testing.T, names ...string) *index.Index {
	t.Helper()

	rosterPath := filepath.Join(t.TempDir(), "roster.csv")
	content := "姓名,住院流水号\n李凤存,ZY001\n王五,ZY002\n"
	if err := os.WriteFile(rosterPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := roster.Load(rosterPath, roster.Options{})
	if err != nil {
		t.Fatal(err)
	}

	srcDir := t.TempDir()
	files := make([]document.Ref, 0, len(names))
	for _, name := range names {
		path := filepath.Join(srcDir, name)
		if err := os.WriteFile(path, []byte("<doc/>"), 0644); err != nil {
			t.Fatal(err)
		}
		files = append(files, document.NewRef(path))
	}

	resolver := identity.NewResolver(r, identity.DefaultConfig(), nil)
	return index.NewBuilder(resolver, nil).Build(files)
}

func TestBuildFullLayout(t *testing.T) {
	idx := buildIndex(t,
		"EMR-SD-04-西药处方-李凤存-T01-001.xml",
		"EMR-SD-06-检验-李凤存-T01-001.xml",
		"EMR-SD-04-西药处方-王五-T01-001.xml",
	)

	dst := t.TempDir()
	copied, err := NewWriter(dst).BuildFull(idx)
	if err != nil {
		t.Fatalf("BuildFull failed: %v", err)
	}
	if copied != 3 {
		t.Errorf("copied = %d, want 3", copied)
	}

	expect := []string{
		"1.full/ZY001-李凤存/SD-04/EMR-SD-04-西药处方-李凤存-T01-001.xml",
		"1.full/ZY001-李凤存/SD-06/EMR-SD-06-检验-李凤存-T01-001.xml",
		"1.full/ZY002-王五/SD-04/EMR-SD-04-西药处方-王五-T01-001.xml",
	}
	for _, rel := range expect {
		if _, err := os.Stat(filepath.Join(dst, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing archive file %s: %v", rel, err)
		}
	}
}

func TestBuildFullIdempotent(t *testing.T) {
	idx := buildIndex(t, "EMR-SD-04-西药处方-李凤存-T01-001.xml")
	dst := t.TempDir()
	w := NewWriter(dst)

	if _, err := w.BuildFull(idx); err != nil {
		t.Fatalf("first BuildFull failed: %v", err)
	}
	if _, err := w.BuildFull(idx); err != nil {
		t.Fatalf("re-run BuildFull failed: %v", err)
	}
}

func TestBuildSampleCap(t *testing.T) {
	names := make([]string, 0, 13)
	for i := 1; i <= 13; i++ {
		names = append(names, fmt.Sprintf("EMR-SD-04-西药处方-李凤存-T01-%03d.xml", i))
	}
	idx := buildIndex(t, names...)

	dst := t.TempDir()
	copied, err := NewWriter(dst).BuildSample(idx, 0)
	if err != nil {
		t.Fatalf("BuildSample failed: %v", err)
	}
	if copied != DefaultSampleCap {
		t.Errorf("copied = %d, want %d", copied, DefaultSampleCap)
	}

	sampleDir := filepath.Join(dst, SampleDir, "ZY001-李凤存", "SD-04")
	entries, err := os.ReadDir(sampleDir)
	if err != nil {
		t.Fatalf("failed to read sample dir: %v", err)
	}
	if len(entries) != DefaultSampleCap {
		t.Fatalf("sample holds %d files, want %d", len(entries), DefaultSampleCap)
	}

	// First K in discovery order, so file 011..013 must be absent.
	for i := 11; i <= 13; i++ {
		name := fmt.Sprintf("EMR-SD-04-西药处方-李凤存-T01-%03d.xml", i)
		if _, err := os.Stat(filepath.Join(sampleDir, name)); err == nil {
			t.Errorf("file beyond the cap was sampled: %s", name)
		}
	}
}

func TestBuildSampleSmallBucketCopiesAll(t *testing.T) {
	idx := buildIndex(t,
		"EMR-SD-04-西药处方-王五-T01-001.xml",
		"EMR-SD-04-西药处方-王五-T01-002.xml",
	)

	dst := t.TempDir()
	copied, err := NewWriter(dst).BuildSample(idx, 10)
	if err != nil {
		t.Fatalf("BuildSample failed: %v", err)
	}
	if copied != 2 {
		t.Errorf("copied = %d, want 2", copied)
	}
}

func TestPatientIDs(t *testing.T) {
	idx := buildIndex(t,
		"EMR-SD-04-西药处方-李凤存-T01-001.xml",
		"EMR-SD-04-西药处方-王五-T01-001.xml",
	)
	dst := t.TempDir()
	if _, err := NewWriter(dst).BuildFull(idx); err != nil {
		t.Fatal(err)
	}

	ids, err := PatientIDs(dst)
	if err != nil {
		t.Fatalf("PatientIDs failed: %v", err)
	}
	if len(ids) != 2 || !ids["ZY001"] || !ids["ZY002"] {
		t.Errorf("ids = %v", SortedIDs(ids))
	}
}

func TestPatientIDsMissingArchive(t *testing.T) {
	if _, err := PatientIDs(t.TempDir()); err == nil {
		t.Error("expected error for missing archive directory")
	}
}
