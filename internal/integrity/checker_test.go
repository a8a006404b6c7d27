package integrity

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/trellis-dev/trellis/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRun_CleanProjects(t *testing.T) {
	s := testStore(t)
	w, _ := s.CreateWorkspace("W")

	for i := 0; i < 5; i++ {
		p, _ := s.CreateProject(w.ID, "P", "")
		a, _ := s.CreateTask(p.ID, "A", "", "")
		b, _ := s.CreateTask(p.ID, "B", "", "")
		s.AddDependency(p.ID, a.ID, b.ID)
	}

	results, err := New(s, 3).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.OK() {
			t.Errorf("project %d should be clean: issues=%v err=%v", r.ProjectID, r.Issues, r.Err)
		}
	}
}

func TestRun_DetectsCycle(t *testing.T) {
	s := testStore(t)
	w, _ := s.CreateWorkspace("W")
	p, _ := s.CreateProject(w.ID, "P", "")

	a, _ := s.CreateTask(p.ID, "A", "", "")
	b, _ := s.CreateTask(p.ID, "B", "", "")
	c, _ := s.CreateTask(p.ID, "C", "", "")

	// Corrupt the edge set directly, bypassing the graph service.
	s.AddDependency(p.ID, a.ID, b.ID)
	s.AddDependency(p.ID, b.ID, c.ID)
	s.AddDependency(p.ID, c.ID, a.ID)

	results, err := New(s, 1).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.OK() {
		t.Fatal("expected cycle to be reported")
	}
	found := false
	for _, issue := range r.Issues {
		if strings.HasPrefix(issue, "cycle:") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a cycle issue, got %v", r.Issues)
	}
}

func TestRun_DetectsSelfEdgeAndDanglingEndpoint(t *testing.T) {
	s := testStore(t)
	w, _ := s.CreateWorkspace("W")
	p, _ := s.CreateProject(w.ID, "P", "")
	a, _ := s.CreateTask(p.ID, "A", "", "")

	s.AddDependency(p.ID, a.ID, a.ID)  // self-edge
	s.AddDependency(p.ID, a.ID, 9999)  // dangling target

	results, err := New(s, 2).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := results[0]
	if len(r.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %v", r.Issues)
	}
}

func TestFormatCycle(t *testing.T) {
	got := formatCycle([]int64{3, 7, 5})
	want := "#3 -> #7 -> #5 -> #3"
	if got != want {
		t.Errorf("formatCycle = %q, want %q", got, want)
	}
}
