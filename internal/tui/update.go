package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/trellis-dev/trellis/internal/graph"
	"github.com/trellis-dev/trellis/internal/store"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.currentView {
		case viewCreate:
			return m.handleCreateKey(msg)
		case viewDetail:
			return m.handleDetailKey(msg)
		default:
			return m.handleBoardKey(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksRefreshedMsg:
		m.tasks = msg.tasks
		m.blocked = msg.blocked
		m.rebuildColumns()
		return m, nil

	case taskDetailMsg:
		m.selectedTask = msg.task
		m.taskDeps = msg.deps
		m.taskBlocks = msg.blocks
		m.currentView = viewDetail
		return m, nil

	case statusMsgMsg:
		m.statusMsg = string(msg)
		return m, nil
	}

	return m, nil
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "left", "h":
		m.cursorCol--
		m.clampCursor()
		return m, nil

	case "right", "l":
		m.cursorCol++
		m.clampCursor()
		return m, nil

	case "up", "k":
		m.cursorRow--
		m.clampCursor()
		return m, nil

	case "down", "j":
		m.cursorRow++
		m.clampCursor()
		return m, nil

	case "enter":
		if t := m.selectedTaskFromBoard(); t != nil {
			return m, m.loadTaskDetail(t.ID)
		}
		return m, nil

	case "n":
		m.currentView = viewCreate
		m.titleInput.SetValue("")
		m.titleInput.Focus()
		return m, textinput.Blink

	case "s", " ":
		// Advance the selected task one step along the workflow.
		if t := m.selectedTaskFromBoard(); t != nil {
			return m, m.advanceTask(*t)
		}
		return m, nil

	case "r":
		return m, m.refreshTasks()
	}

	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "enter":
		m.currentView = viewBoard
		m.selectedTask = nil
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.currentView = viewBoard
		return m, nil

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		title := m.titleInput.Value()
		if title == "" {
			m.currentView = viewBoard
			return m, nil
		}
		m.currentView = viewBoard
		return m, m.createTask(title)
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

// nextStatus is the forward step used by the space/s shortcut.
var nextStatus = map[store.TaskStatus]store.TaskStatus{
	store.StatusTodo:       store.StatusInProgress,
	store.StatusInProgress: store.StatusReview,
	store.StatusReview:     store.StatusDone,
}

func (m Model) advanceTask(t store.Task) tea.Cmd {
	return func() tea.Msg {
		next, ok := nextStatus[t.Status]
		if !ok {
			return statusMsgMsg("Task is already done")
		}
		if err := m.graph.ChangeStatus(t.ID, next); err != nil {
			if errors.Is(err, graph.ErrBlockedByDependency) {
				return statusMsgMsg("Blocked: dependencies incomplete")
			}
			return statusMsgMsg("Error: " + err.Error())
		}
		return m.refreshTasks()()
	}
}

func (m Model) createTask(title string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.store.CreateTask(m.projectID, title, "", ""); err != nil {
			return statusMsgMsg("Error: " + err.Error())
		}
		return m.refreshTasks()()
	}
}
