// Package integrity verifies stored dependency graphs. It walks every
// project in parallel and reports projects whose edge set violates the
// invariants the graph service maintains: acyclicity, no self-edges,
// no edges to missing or foreign tasks.
package integrity

import (
	"fmt"
	"sync"
	"time"

	"github.com/trellis-dev/trellis/internal/store"
)

// Result holds the outcome of checking a single project.
type Result struct {
	ProjectID int64
	Name      string
	Issues    []string // Empty when the project is healthy.
	Duration  time.Duration
	Err       error // Store failure, distinct from found issues.
}

// OK reports whether the project checked clean.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Issues) == 0
}

// Checker runs graph verification across projects.
type Checker struct {
	store      *store.Store
	maxWorkers int

	mu      sync.Mutex
	results []Result
}

// New creates a checker. maxWorkers caps concurrent project checks.
func New(s *store.Store, maxWorkers int) *Checker {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Checker{store: s, maxWorkers: maxWorkers}
}

// Run checks every project and returns one result per project,
// ordered by project ID.
func (c *Checker) Run() ([]Result, error) {
	projects, err := c.store.ListAllProjects()
	if err != nil {
		return nil, err
	}

	c.results = make([]Result, len(projects))

	sem := make(chan struct{}, c.maxWorkers)
	var wg sync.WaitGroup
	for i, p := range projects {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p store.Project) {
			defer wg.Done()
			defer func() { <-sem }()

			r := c.checkProject(p)

			c.mu.Lock()
			c.results[i] = r
			c.mu.Unlock()
		}(i, p)
	}
	wg.Wait()

	return c.results, nil
}

// checkProject validates one project's edge set.
func (c *Checker) checkProject(p store.Project) Result {
	start := time.Now()
	r := Result{ProjectID: p.ID, Name: p.Name}

	tasks, err := c.store.ListTasks(p.ID, "")
	if err != nil {
		r.Err = err
		r.Duration = time.Since(start)
		return r
	}
	known := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}

	edges, err := c.store.ListProjectDependencies(p.ID)
	if err != nil {
		r.Err = err
		r.Duration = time.Since(start)
		return r
	}

	adj := map[int64][]int64{}
	for _, e := range edges {
		if e.TaskID == e.DependsOnID {
			r.Issues = append(r.Issues, fmt.Sprintf("self-edge on task #%d", e.TaskID))
			continue
		}
		if !known[e.TaskID] {
			r.Issues = append(r.Issues, fmt.Sprintf("edge from missing task #%d", e.TaskID))
		}
		if !known[e.DependsOnID] {
			r.Issues = append(r.Issues, fmt.Sprintf("edge to missing task #%d", e.DependsOnID))
		}
		adj[e.TaskID] = append(adj[e.TaskID], e.DependsOnID)
	}

	if cycle := findCycle(adj); len(cycle) > 0 {
		r.Issues = append(r.Issues, fmt.Sprintf("cycle: %s", formatCycle(cycle)))
	}

	r.Duration = time.Since(start)
	return r
}

// findCycle returns one cycle in the graph, or nil. DFS with the
// classic white/grey/black coloring.
func findCycle(adj map[int64][]int64) []int64 {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := map[int64]int{}

	var path []int64
	var found []int64

	var visit func(n int64) bool
	visit = func(n int64) bool {
		color[n] = grey
		path = append(path, n)
		for _, next := range adj[n] {
			if color[next] == grey {
				// Slice the cycle out of the current path.
				for i, m := range path {
					if m == next {
						found = append([]int64{}, path[i:]...)
						return true
					}
				}
			}
			if color[next] == white && visit(next) {
				return true
			}
		}
		color[n] = black
		path = path[:len(path)-1]
		return false
	}

	for n := range adj {
		if color[n] == white && visit(n) {
			return found
		}
	}
	return nil
}

func formatCycle(cycle []int64) string {
	s := ""
	for _, id := range cycle {
		if s != "" {
			s += " -> "
		}
		s += fmt.Sprintf("#%d", id)
	}
	if len(cycle) > 0 {
		s += fmt.Sprintf(" -> #%d", cycle[0])
	}
	return s
}
