package graph

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/trellis-dev/trellis/internal/store"
)

func testService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, PolicyReject), s
}

func testFixture(t *testing.T, s *store.Store, n int) (int64, []int64) {
	t.Helper()
	w, err := s.CreateWorkspace("W")
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	p, err := s.CreateProject(w.ID, "P", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	ids := make([]int64, n)
	for i := range ids {
		task, err := s.CreateTask(p.ID, fmt.Sprintf("Task %d", i), "", "")
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		ids[i] = task.ID
	}
	return p.ID, ids
}

func TestAddEdge_RejectsCycle(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 3)
	a, b, c := ids[0], ids[1], ids[2]

	if err := g.AddEdge(pid, a, b); err != nil {
		t.Fatalf("a -> b: %v", err)
	}
	if err := g.AddEdge(pid, b, c); err != nil {
		t.Fatalf("b -> c: %v", err)
	}

	err := g.AddEdge(pid, c, a)
	if !errors.Is(err, ErrWouldCreateCycle) {
		t.Fatalf("expected ErrWouldCreateCycle, got %v", err)
	}

	// The rejected edge must not have been written.
	has, _ := s.HasDependency(c, a)
	if has {
		t.Error("rejected edge was persisted")
	}
}

func TestAddEdge_RejectsTwoNodeCycle(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 2)

	if err := g.AddEdge(pid, ids[0], ids[1]); err != nil {
		t.Fatalf("a -> b: %v", err)
	}
	if err := g.AddEdge(pid, ids[1], ids[0]); !errors.Is(err, ErrWouldCreateCycle) {
		t.Fatalf("expected ErrWouldCreateCycle, got %v", err)
	}
}

func TestAddEdge_SelfReference(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 1)

	if err := g.AddEdge(pid, ids[0], ids[0]); !errors.Is(err, ErrSelfReference) {
		t.Fatalf("expected ErrSelfReference, got %v", err)
	}
}

func TestAddEdge_DuplicateIsNoOp(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 2)

	if err := g.AddEdge(pid, ids[0], ids[1]); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := g.AddEdge(pid, ids[0], ids[1]); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}

	edges, _ := s.ListProjectDependencies(pid)
	if len(edges) != 1 {
		t.Errorf("expected 1 edge, got %d", len(edges))
	}
}

func TestAddEdge_CrossProject(t *testing.T) {
	g, s := testService(t)
	pid1, ids1 := testFixture(t, s, 1)
	_, ids2 := testFixture(t, s, 1)

	err := g.AddEdge(pid1, ids1[0], ids2[0])
	if !errors.Is(err, ErrCrossProject) {
		t.Fatalf("expected ErrCrossProject, got %v", err)
	}
}

func TestAddEdge_MissingTask(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 1)

	err := g.AddEdge(pid, ids[0], 9999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveEdge(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 2)

	g.AddEdge(pid, ids[0], ids[1])
	if err := g.RemoveEdge(pid, ids[0], ids[1]); err != nil {
		t.Fatalf("RemoveEdge: %v", err)
	}
	if err := g.RemoveEdge(pid, ids[0], ids[1]); !errors.Is(err, ErrEdgeNotFound) {
		t.Fatalf("expected ErrEdgeNotFound, got %v", err)
	}
}

func TestIsReady_NoDependencies(t *testing.T) {
	g, s := testService(t)
	_, ids := testFixture(t, s, 1)

	ready, err := g.IsReady(ids[0])
	if err != nil {
		t.Fatalf("IsReady: %v", err)
	}
	if !ready {
		t.Error("task with no dependencies should be ready")
	}
}

func TestIsReady_DirectOnly(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 3)
	a, b, c := ids[0], ids[1], ids[2]

	// a -> b -> c. Readiness of a looks only at b.
	g.AddEdge(pid, a, b)
	g.AddEdge(pid, b, c)

	ready, _ := g.IsReady(a)
	if ready {
		t.Error("a should not be ready while b is todo")
	}

	// b done makes a ready even though c is untouched; b could only
	// have reached done through its own readiness gate, so direct
	// inspection is sufficient. Here we force it through the store to
	// isolate the readiness check.
	s.UpdateTaskStatus(b, store.StatusDone)
	ready, _ = g.IsReady(a)
	if !ready {
		t.Error("a should be ready once b is done")
	}
}

func TestChangeStatus_DoneGatedOnReadiness(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 2)
	a, b := ids[0], ids[1]

	g.AddEdge(pid, a, b)

	err := g.ChangeStatus(a, store.StatusDone)
	if !errors.Is(err, ErrBlockedByDependency) {
		t.Fatalf("expected ErrBlockedByDependency, got %v", err)
	}
	task, _ := s.GetTask(a)
	if task.Status != store.StatusTodo {
		t.Fatalf("failed transition must not mutate status, got %s", task.Status)
	}

	if err := g.ChangeStatus(b, store.StatusDone); err != nil {
		t.Fatalf("complete b: %v", err)
	}

	// A task still in todo may jump straight to done once unblocked.
	if err := g.ChangeStatus(a, store.StatusDone); err != nil {
		t.Fatalf("complete a after b done: %v", err)
	}
	task, _ = s.GetTask(a)
	if task.Status != store.StatusDone {
		t.Errorf("expected done, got %s", task.Status)
	}
}

func TestChangeStatus_ForwardMoves(t *testing.T) {
	g, s := testService(t)
	_, ids := testFixture(t, s, 1)
	id := ids[0]

	for _, st := range []store.TaskStatus{store.StatusInProgress, store.StatusReview, store.StatusDone} {
		if err := g.ChangeStatus(id, st); err != nil {
			t.Fatalf("move to %s: %v", st, err)
		}
	}
}

func TestChangeStatus_ReworkFromReview(t *testing.T) {
	g, s := testService(t)
	_, ids := testFixture(t, s, 1)
	id := ids[0]

	g.ChangeStatus(id, store.StatusReview)
	if err := g.ChangeStatus(id, store.StatusInProgress); err != nil {
		t.Fatalf("review -> in_progress: %v", err)
	}
}

func TestChangeStatus_BackwardBlockedByStartedDependent(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 2)
	a, b := ids[0], ids[1]

	g.AddEdge(pid, a, b)
	g.ChangeStatus(b, store.StatusDone)
	g.ChangeStatus(a, store.StatusInProgress)

	// a has started, so b cannot be reopened.
	err := g.ChangeStatus(b, store.StatusTodo)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Once a is back in todo, reopening b is fine.
	if err := g.ChangeStatus(a, store.StatusTodo); err != nil {
		t.Fatalf("reset a: %v", err)
	}
	if err := g.ChangeStatus(b, store.StatusTodo); err != nil {
		t.Fatalf("reopen b: %v", err)
	}
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	g, s := testService(t)
	_, ids := testFixture(t, s, 1)

	if err := g.ChangeStatus(ids[0], "archived"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestDeleteTask_RejectPolicy(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 2)
	a, b := ids[0], ids[1]

	g.AddEdge(pid, a, b)

	err := g.DeleteTask(b)
	if !errors.Is(err, ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}

	// Deleting the leaf is fine and drops its outgoing edge.
	if err := g.DeleteTask(a); err != nil {
		t.Fatalf("delete a: %v", err)
	}
	edges, _ := s.ListProjectDependencies(pid)
	if len(edges) != 0 {
		t.Errorf("expected edges removed, got %d", len(edges))
	}
	// b now has no dependents.
	if err := g.DeleteTask(b); err != nil {
		t.Fatalf("delete b: %v", err)
	}
}

func TestDeleteTask_CascadePolicy(t *testing.T) {
	_, s := testService(t)
	g := New(s, PolicyCascade)
	pid, ids := testFixture(t, s, 2)
	a, b := ids[0], ids[1]

	g.AddEdge(pid, a, b)

	if err := g.DeleteTask(b); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if _, err := s.GetTask(b); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected b gone, got %v", err)
	}
	edges, _ := s.ListProjectDependencies(pid)
	if len(edges) != 0 {
		t.Errorf("expected edges removed, got %d", len(edges))
	}
	// a survives with its edge dropped.
	if _, err := s.GetTask(a); err != nil {
		t.Errorf("a should survive: %v", err)
	}
}

// TestAddEdge_NeverCyclic inserts random edges and checks that the edge
// set stays acyclic after every accepted insert.
func TestAddEdge_NeverCyclic(t *testing.T) {
	g, s := testService(t)
	const n = 15
	pid, ids := testFixture(t, s, n)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		from := ids[rng.Intn(n)]
		to := ids[rng.Intn(n)]
		err := g.AddEdge(pid, from, to)
		if err != nil && !errors.Is(err, ErrWouldCreateCycle) && !errors.Is(err, ErrSelfReference) {
			t.Fatalf("unexpected error: %v", err)
		}

		edges, lerr := s.ListProjectDependencies(pid)
		if lerr != nil {
			t.Fatalf("list edges: %v", lerr)
		}
		if findCycle(edges) {
			t.Fatalf("cycle present after %d inserts", i+1)
		}

		// A cycle rejection must be justified: force-applying the edge
		// has to produce a cyclic set.
		if errors.Is(err, ErrWouldCreateCycle) {
			forced := append(append([]store.Dependency{}, edges...),
				store.Dependency{TaskID: from, DependsOnID: to})
			if !findCycle(forced) {
				t.Fatalf("edge #%d -> #%d rejected but would not create a cycle", from, to)
			}
		}
	}
}

// findCycle detects a cycle via iterative three-color DFS.
func findCycle(edges []store.Dependency) bool {
	adj := map[int64][]int64{}
	for _, e := range edges {
		adj[e.TaskID] = append(adj[e.TaskID], e.DependsOnID)
	}
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := map[int64]int{}
	var visit func(n int64) bool
	visit = func(n int64) bool {
		color[n] = grey
		for _, next := range adj[n] {
			switch color[next] {
			case grey:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}
	for n := range adj {
		if color[n] == white && visit(n) {
			return true
		}
	}
	return false
}

// TestAddEdge_ConcurrentOpposingEdges races a->b against b->a. Exactly
// one must win; the result must be acyclic either way.
func TestAddEdge_ConcurrentOpposingEdges(t *testing.T) {
	for round := 0; round < 20; round++ {
		g, s := testService(t)
		pid, ids := testFixture(t, s, 2)
		a, b := ids[0], ids[1]

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs[0] = g.AddEdge(pid, a, b)
		}()
		go func() {
			defer wg.Done()
			errs[1] = g.AddEdge(pid, b, a)
		}()
		wg.Wait()

		var ok, cyc int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrWouldCreateCycle):
				cyc++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if ok != 1 || cyc != 1 {
			t.Fatalf("expected one success and one cycle rejection, got ok=%d cyc=%d", ok, cyc)
		}

		edges, _ := s.ListProjectDependencies(pid)
		if len(edges) != 1 {
			t.Fatalf("expected exactly 1 edge, got %d", len(edges))
		}
	}
}

func TestDependentsAndDependencies(t *testing.T) {
	g, s := testService(t)
	pid, ids := testFixture(t, s, 3)
	a, b, c := ids[0], ids[1], ids[2]

	g.AddEdge(pid, a, c)
	g.AddEdge(pid, b, c)

	dependents, err := g.Dependents(c)
	if err != nil {
		t.Fatalf("Dependents: %v", err)
	}
	if len(dependents) != 2 {
		t.Errorf("expected 2 dependents of c, got %d", len(dependents))
	}

	deps, err := g.Dependencies(a)
	if err != nil {
		t.Fatalf("Dependencies: %v", err)
	}
	if len(deps) != 1 || deps[0].ID != c {
		t.Errorf("unexpected dependencies of a: %+v", deps)
	}
}
