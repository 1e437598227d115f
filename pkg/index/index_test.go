package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/identity"
	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/roster"
)

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.csv")
	content := "姓名,住院流水号\n李凤存,ZY001\n王五,ZY002\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := roster.Load(path, roster.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	resolver := identity.NewResolver(testRoster(t), identity.DefaultConfig(), nil)
	return NewBuilder(resolver, nil)
}

func TestBuildGroupsByPatientAndCategory(t *testing.T) {
	b := testBuilder(t)

	files := []document.Ref{
		document.NewRef("/in/EMR-SD-04-西药处方-李凤存-T01-001.xml"),
		document.NewRef("/in/EMR-SD-04-西药处方-李凤存-T01-002.xml"),
		document.NewRef("/in/EMR-SD-06-检验-李凤存-T01-001.xml"),
		document.NewRef("/in/EMR-SD-04-西药处方-王五-T01-001.xml"),
	}
	idx := b.Build(files)

	if idx.Patients() != 2 {
		t.Fatalf("Patients = %d, want 2", idx.Patients())
	}
	if got := idx.Name("ZY001"); got != "李凤存" {
		t.Errorf("Name(ZY001) = %q", got)
	}

	sd04 := idx.Files("ZY001", "SD-04")
	if len(sd04) != 2 {
		t.Fatalf("ZY001/SD-04 has %d files, want 2", len(sd04))
	}
	// Discovery order preserved.
	if sd04[0].Name != "EMR-SD-04-西药处方-李凤存-T01-001.xml" {
		t.Errorf("order not preserved: first is %s", sd04[0].Name)
	}

	cats := idx.Categories("ZY001")
	if len(cats) != 2 || cats[0] != "SD-04" || cats[1] != "SD-06" {
		t.Errorf("Categories(ZY001) = %v", cats)
	}
}

func TestBuildSkipsUnresolvableName(t *testing.T) {
	b := testBuilder(t)

	// No category marker, too few tokens for the positional fallback, and
	// the path holds no patient directory; content extraction fails on the
	// missing file. Every layer exhausts, so the document must be skipped
	// and accounted for.
	files := []document.Ref{
		document.NewRef(filepath.Join(t.TempDir(), "garbled.xml")),
		document.NewRef("/in/EMR-SD-04-西药处方-王五-T01-001.xml"),
	}
	idx := b.Build(files)

	if idx.Total() != 2 {
		t.Errorf("Total = %d, want 2", idx.Total())
	}
	if idx.Inserted() != 1 {
		t.Errorf("Inserted = %d, want 1", idx.Inserted())
	}
	skipped := idx.Skipped()
	if len(skipped) != 1 {
		t.Fatalf("Skipped = %d entries, want 1", len(skipped))
	}
	if skipped[0].Ref.Name != "garbled.xml" {
		t.Errorf("skipped the wrong file: %s", skipped[0].Ref.Name)
	}

	// No silent loss: inserted plus skipped covers every input.
	if idx.Inserted()+len(idx.Skipped()) != idx.Total() {
		t.Error("accounting does not cover every enumerated document")
	}
}

func TestBuildKeepsRosterMissUnderUnknownBucket(t *testing.T) {
	b := testBuilder(t)

	files := []document.Ref{
		document.NewRef("/in/EMR-SD-04-西药处方-陌生人-T01-001.xml"),
	}
	idx := b.Build(files)

	if idx.Inserted() != 1 {
		t.Fatalf("Inserted = %d, want 1 (archived but flagged)", idx.Inserted())
	}
	refs := idx.Files(document.Unknown, "SD-04")
	if len(refs) != 1 {
		t.Fatalf("expected the document under the unknown-id bucket, got %v", idx.PatientIDs())
	}
	if got := idx.Name(document.Unknown); got != "陌生人" {
		t.Errorf("Name(UNKNOWN) = %q", got)
	}
}

func TestPatientIDsSorted(t *testing.T) {
	b := testBuilder(t)

	files := []document.Ref{
		document.NewRef("/in/EMR-SD-04-西药处方-王五-T01-001.xml"),
		document.NewRef("/in/EMR-SD-04-西药处方-李凤存-T01-001.xml"),
	}
	idx := b.Build(files)

	ids := idx.PatientIDs()
	if len(ids) != 2 || ids[0] != "ZY001" || ids[1] != "ZY002" {
		t.Errorf("PatientIDs = %v", ids)
	}
}
