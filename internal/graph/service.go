// Package graph owns the task-dependency relation. It keeps each
// project's depends-on digraph acyclic under concurrent edge insertion
// and answers readiness and impact queries over it.
package graph

import (
	"fmt"
	"sync"

	"github.com/trellis-dev/trellis/internal/store"
)

// DeletePolicy controls what DeleteTask does when other tasks still
// depend on the one being deleted.
type DeletePolicy string

const (
	// PolicyReject refuses the delete with ErrHasDependents. Dependents
	// must be re-pointed or unlinked first.
	PolicyReject DeletePolicy = "reject"
	// PolicyCascade silently drops every edge touching the task.
	PolicyCascade DeletePolicy = "cascade"
)

// Service maintains the per-project dependency digraph.
//
// All mutations on one project's edge set are serialized through a
// per-project mutex, so a cycle check and the insert that follows it
// observe a consistent edge set. Operations on different projects
// proceed in parallel.
type Service struct {
	store  *store.Store
	policy DeletePolicy

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates a dependency graph service over the given store.
// An empty policy defaults to PolicyReject.
func New(s *store.Store, policy DeletePolicy) *Service {
	if policy == "" {
		policy = PolicyReject
	}
	return &Service{
		store:  s,
		policy: policy,
		locks:  map[int64]*sync.Mutex{},
	}
}

// projectLock returns the mutex serializing mutations for one project.
func (g *Service) projectLock(projectID int64) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[projectID] = l
	}
	return l
}

// AddEdge records that taskID depends on dependsOnID: the depended-on
// task must reach done first. The edge is rejected if it would close a
// cycle, cross a project boundary, or point a task at itself. Adding
// an edge that already exists is a no-op.
func (g *Service) AddEdge(projectID, taskID, dependsOnID int64) error {
	if taskID == dependsOnID {
		return ErrSelfReference
	}

	l := g.projectLock(projectID)
	l.Lock()
	defer l.Unlock()

	task, err := g.store.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("task %d: %w", taskID, err)
	}
	dependsOn, err := g.store.GetTask(dependsOnID)
	if err != nil {
		return fmt.Errorf("task %d: %w", dependsOnID, err)
	}
	if task.ProjectID != projectID || dependsOn.ProjectID != projectID {
		return fmt.Errorf("%w: task %d is in project %d, task %d is in project %d",
			ErrCrossProject, taskID, task.ProjectID, dependsOnID, dependsOn.ProjectID)
	}

	exists, err := g.store.HasDependency(taskID, dependsOnID)
	if err != nil {
		return err
	}
	if exists {
		return nil // Idempotent: the edge is already there.
	}

	// A cycle appears exactly when dependsOnID already (transitively)
	// depends on taskID. Walk depends-on edges from dependsOnID.
	adj, err := g.adjacency(projectID)
	if err != nil {
		return err
	}
	if reachable(adj, dependsOnID, taskID) {
		return fmt.Errorf("%w: task %d already depends on task %d",
			ErrWouldCreateCycle, dependsOnID, taskID)
	}

	if _, err := g.store.AddDependency(projectID, taskID, dependsOnID); err != nil {
		return err
	}

	g.recordActivity(projectID, taskID, "dep_added",
		fmt.Sprintf("Task #%d now depends on #%d", taskID, dependsOnID))
	return nil
}

// RemoveEdge deletes a depends-on edge. It fails only if the edge does
// not exist.
func (g *Service) RemoveEdge(projectID, taskID, dependsOnID int64) error {
	l := g.projectLock(projectID)
	l.Lock()
	defer l.Unlock()

	existed, err := g.store.RemoveDependency(taskID, dependsOnID)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: #%d -> #%d", ErrEdgeNotFound, taskID, dependsOnID)
	}

	g.recordActivity(projectID, taskID, "dep_removed",
		fmt.Sprintf("Task #%d no longer depends on #%d", taskID, dependsOnID))
	return nil
}

// IsReady reports whether every task that taskID directly depends on is
// done. Tasks with no dependencies are vacuously ready. Readiness is
// deliberately direct-only: done status is itself gated on readiness at
// transition time, so completion propagates through the graph without a
// transitive walk here.
func (g *Service) IsReady(taskID int64) (bool, error) {
	ready, _, err := g.readiness(taskID)
	return ready, err
}

// readiness returns whether the task is ready plus how many direct
// dependencies are still incomplete.
func (g *Service) readiness(taskID int64) (bool, int, error) {
	deps, err := g.store.DependenciesOf(taskID)
	if err != nil {
		return false, 0, err
	}

	incomplete := 0
	for _, d := range deps {
		t, err := g.store.GetTask(d.DependsOnID)
		if err != nil {
			return false, 0, fmt.Errorf("dependency %d: %w", d.DependsOnID, err)
		}
		if t.Status != store.StatusDone {
			incomplete++
		}
	}
	return incomplete == 0, incomplete, nil
}

// Dependencies returns the tasks that taskID directly depends on.
func (g *Service) Dependencies(taskID int64) ([]store.Task, error) {
	deps, err := g.store.DependenciesOf(taskID)
	if err != nil {
		return nil, err
	}
	return g.resolve(deps, func(d store.Dependency) int64 { return d.DependsOnID })
}

// Dependents returns the tasks that directly depend on taskID. Used to
// find what unblocks when taskID becomes done.
func (g *Service) Dependents(taskID int64) ([]store.Task, error) {
	deps, err := g.store.DependentsOf(taskID)
	if err != nil {
		return nil, err
	}
	return g.resolve(deps, func(d store.Dependency) int64 { return d.TaskID })
}

func (g *Service) resolve(deps []store.Dependency, pick func(store.Dependency) int64) ([]store.Task, error) {
	var tasks []store.Task
	for _, d := range deps {
		t, err := g.store.GetTask(pick(d))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

// statusRank orders statuses along the normal workflow direction.
var statusRank = map[store.TaskStatus]int{
	store.StatusTodo:       0,
	store.StatusInProgress: 1,
	store.StatusReview:     2,
	store.StatusDone:       3,
}

// ChangeStatus moves a task through the workflow.
//
// Forward moves (todo -> in_progress -> review -> done, including
// skips) are always structurally allowed; reaching done additionally
// requires every direct dependency to be done. Review -> in_progress
// is allowed for rework. Any other backward move — back to todo, or
// out of done — is allowed only while every direct dependent is still
// in todo, so completed downstream work is never silently un-blocked.
func (g *Service) ChangeStatus(taskID int64, newStatus store.TaskStatus) error {
	if !store.ValidStatus(newStatus) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, newStatus)
	}

	task, err := g.store.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("task %d: %w", taskID, err)
	}
	if task.Status == newStatus {
		return nil
	}

	l := g.projectLock(task.ProjectID)
	l.Lock()
	defer l.Unlock()

	backward := statusRank[newStatus] < statusRank[task.Status]
	rework := task.Status == store.StatusReview && newStatus == store.StatusInProgress
	if backward && !rework {
		dependents, err := g.store.DependentsOf(taskID)
		if err != nil {
			return err
		}
		for _, d := range dependents {
			dt, err := g.store.GetTask(d.TaskID)
			if err != nil {
				return err
			}
			if dt.Status != store.StatusTodo {
				return fmt.Errorf("%w: cannot move #%d back to %s while #%d is %s",
					ErrInvalidTransition, taskID, newStatus, dt.ID, dt.Status)
			}
		}
	}

	if newStatus == store.StatusDone {
		ready, incomplete, err := g.readiness(taskID)
		if err != nil {
			return err
		}
		if !ready {
			return fmt.Errorf("%w: %d incomplete", ErrBlockedByDependency, incomplete)
		}
	}

	if err := g.store.UpdateTaskStatus(taskID, newStatus); err != nil {
		return err
	}

	g.recordActivity(task.ProjectID, taskID, "status_changed",
		fmt.Sprintf("Status changed to %s", newStatus))
	return nil
}

// DeleteTask removes a task and the edges touching it. Under the
// reject policy (the default) the delete fails while other tasks still
// depend on it; under cascade those reverse edges are dropped too.
func (g *Service) DeleteTask(taskID int64) error {
	task, err := g.store.GetTask(taskID)
	if err != nil {
		return fmt.Errorf("task %d: %w", taskID, err)
	}

	l := g.projectLock(task.ProjectID)
	l.Lock()
	defer l.Unlock()

	if g.policy == PolicyReject {
		dependents, err := g.store.DependentsOf(taskID)
		if err != nil {
			return err
		}
		if len(dependents) > 0 {
			return fmt.Errorf("%w: %d tasks depend on #%d", ErrHasDependents, len(dependents), taskID)
		}
	}

	if _, err := g.store.RemoveTaskEdges(taskID); err != nil {
		return err
	}
	if err := g.store.DeleteTask(taskID); err != nil {
		return err
	}

	g.recordActivity(task.ProjectID, taskID, "deleted",
		fmt.Sprintf("Task #%d deleted: %s", taskID, task.Title))
	return nil
}

// adjacency builds the project-restricted depends-on map.
func (g *Service) adjacency(projectID int64) (map[int64][]int64, error) {
	edges, err := g.store.ListProjectDependencies(projectID)
	if err != nil {
		return nil, err
	}
	adj := make(map[int64][]int64, len(edges))
	for _, e := range edges {
		adj[e.TaskID] = append(adj[e.TaskID], e.DependsOnID)
	}
	return adj, nil
}

// reachable walks depends-on edges from start and reports whether
// target is found. Iterative DFS; the per-project graph is small.
func reachable(adj map[int64][]int64, start, target int64) bool {
	if start == target {
		return true
	}
	seen := map[int64]bool{start: true}
	stack := []int64{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[n] {
			if next == target {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// recordActivity appends a feed entry for a graph mutation. The
// workspace is resolved from the project; lookup failures drop the
// entry rather than failing the mutation.
func (g *Service) recordActivity(projectID, taskID int64, eventType, content string) {
	p, err := g.store.GetProject(projectID)
	if err != nil {
		return
	}
	g.store.AddActivity(p.WorkspaceID, &projectID, &taskID, "", eventType, content)
}
