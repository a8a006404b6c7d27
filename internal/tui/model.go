// Package tui is the interactive project board: kanban columns by
// status, with dependency state surfaced on each card.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/trellis-dev/trellis/internal/graph"
	"github.com/trellis-dev/trellis/internal/store"
)

// view represents which screen/mode the TUI is in.
type view int

const (
	viewBoard  view = iota // Kanban board (main)
	viewDetail             // Task detail panel
	viewCreate             // Create new task
)

// column indices for navigation
const (
	colTodo       = 0
	colInProgress = 1
	colReview     = 2
	colDone       = 3
	numColumns    = 4
)

var columnStatuses = [numColumns]store.TaskStatus{
	store.StatusTodo,
	store.StatusInProgress,
	store.StatusReview,
	store.StatusDone,
}

var columnLabels = [numColumns]string{
	"TODO",
	"IN PROGRESS",
	"REVIEW",
	"DONE",
}

// Model is the top-level bubbletea model.
type Model struct {
	store     *store.Store
	graph     *graph.Service
	projectID int64

	width  int
	height int

	// Current view.
	currentView view

	// Board state.
	columns   [numColumns][]store.Task
	blocked   map[int64]bool
	cursorCol int
	cursorRow int

	// All tasks cache.
	tasks []store.Task

	// Text input for the create dialog.
	titleInput textinput.Model

	// Selected task for detail view.
	selectedTask *store.Task
	taskDeps     []store.Task
	taskBlocks   []store.Task

	// Status message at the bottom.
	statusMsg string

	// Quitting flag.
	quitting bool
}

// New creates a new TUI model for one project's board.
func New(s *store.Store, g *graph.Service, projectID int64) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 120
	ti.Width = 50

	return Model{
		store:       s,
		graph:       g,
		projectID:   projectID,
		currentView: viewBoard,
		blocked:     map[int64]bool{},
		titleInput:  ti,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.refreshTasks()
}

type tasksRefreshedMsg struct {
	tasks   []store.Task
	blocked map[int64]bool
}

type taskDetailMsg struct {
	task   *store.Task
	deps   []store.Task
	blocks []store.Task
}

type statusMsgMsg string

func (m Model) refreshTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, _ := m.store.ListTasks(m.projectID, "")
		blocked := map[int64]bool{}
		for _, t := range tasks {
			if t.Status == store.StatusDone {
				continue
			}
			if ready, err := m.graph.IsReady(t.ID); err == nil && !ready {
				blocked[t.ID] = true
			}
		}
		return tasksRefreshedMsg{tasks: tasks, blocked: blocked}
	}
}

func (m Model) loadTaskDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		task, err := m.store.GetTask(id)
		if err != nil {
			return statusMsgMsg("Error loading task")
		}
		deps, _ := m.graph.Dependencies(id)
		blocks, _ := m.graph.Dependents(id)
		return taskDetailMsg{task: task, deps: deps, blocks: blocks}
	}
}

func (m *Model) rebuildColumns() {
	for i := range m.columns {
		m.columns[i] = nil
	}
	for _, t := range m.tasks {
		for i, status := range columnStatuses {
			if t.Status == status {
				m.columns[i] = append(m.columns[i], t)
				break
			}
		}
	}
	// Clamp cursor.
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if m.cursorCol >= numColumns {
		m.cursorCol = numColumns - 1
	}
	col := m.columns[m.cursorCol]
	if m.cursorRow >= len(col) {
		m.cursorRow = len(col) - 1
	}
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
}

func (m *Model) selectedTaskFromBoard() *store.Task {
	col := m.columns[m.cursorCol]
	if m.cursorRow < len(col) {
		t := col[m.cursorRow]
		return &t
	}
	return nil
}
