package cli

import (
	"fmt"
	"strings"

	"github.com/trellis-dev/trellis/internal/store"
	"github.com/spf13/cobra"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorWhite   = "\033[37m"
)

var boardCmd = &cobra.Command{
	Use:   "board [project_id]",
	Short: "Show a project's kanban board",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	projectID, err := parseID(args[0], "project")
	if err != nil {
		return err
	}
	tasks, err := s.ListTasks(projectID, "")
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Printf("%sBoard is empty.%s Create a task: %strellis task create %d \"title\"%s\n",
			colorDim, colorReset, colorCyan, projectID, colorReset)
		return nil
	}

	g := graphService(s)
	blocked := map[int64]bool{}
	for _, t := range tasks {
		if t.Status == store.StatusDone {
			continue
		}
		if ready, err := g.IsReady(t.ID); err == nil && !ready {
			blocked[t.ID] = true
		}
	}

	// Group tasks by status.
	columns := map[store.TaskStatus][]store.Task{}
	for _, t := range tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}

	type col struct {
		status store.TaskStatus
		label  string
		color  string
	}
	order := []col{
		{store.StatusTodo, "TODO", colorWhite},
		{store.StatusInProgress, "IN PROGRESS", colorBlue},
		{store.StatusReview, "REVIEW", colorMagenta},
		{store.StatusDone, "DONE", colorGreen},
	}

	// Print header.
	colWidth := 26
	headerLine := ""
	sepLine := ""
	for _, c := range order {
		count := len(columns[c.status])
		header := fmt.Sprintf(" %s%s%s (%d)", c.color+colorBold, c.label, colorReset, count)
		// padRight needs visible length, not byte length (ANSI codes add bytes).
		visibleLen := len(fmt.Sprintf(" %s (%d)", c.label, count))
		padding := colWidth - visibleLen
		if padding < 0 {
			padding = 0
		}
		headerLine += header + strings.Repeat(" ", padding)
		sepLine += strings.Repeat("─", colWidth)
	}
	fmt.Println(headerLine)
	fmt.Println(colorDim + sepLine + colorReset)

	// Find max rows.
	maxRows := 0
	for _, c := range order {
		if len(columns[c.status]) > maxRows {
			maxRows = len(columns[c.status])
		}
	}

	// Print rows.
	for i := 0; i < maxRows; i++ {
		line := ""
		for _, c := range order {
			colTasks := columns[c.status]
			if i < len(colTasks) {
				t := colTasks[i]
				priColor := priorityColor(t.Priority)
				idStr := fmt.Sprintf("#%d", t.ID)
				mark := ""
				if blocked[t.ID] {
					mark = "⛔"
				}
				titleStr := truncate(t.Title, colWidth-len(idStr)-len(mark)-3)
				card := fmt.Sprintf(" %s%s%s %s%s", priColor, idStr, colorReset, titleStr, mark)
				visibleLen := len(fmt.Sprintf(" %s %s", idStr, titleStr)) + len(mark)/3
				padding := colWidth - visibleLen
				if padding < 0 {
					padding = 0
				}
				line += card + strings.Repeat(" ", padding)
			} else {
				line += strings.Repeat(" ", colWidth)
			}
		}
		fmt.Println(line)
	}
	fmt.Println()

	// Blocked tasks summary.
	if len(blocked) > 0 {
		fmt.Printf("%s%s⛔ Blocked by dependencies%s\n", colorBold, colorRed, colorReset)
		for _, t := range tasks {
			if !blocked[t.ID] {
				continue
			}
			deps, _ := g.Dependencies(t.ID)
			var waiting []string
			for _, d := range deps {
				if d.Status != store.StatusDone {
					waiting = append(waiting, fmt.Sprintf("#%d", d.ID))
				}
			}
			fmt.Printf("  %s#%d%s %s — waiting on %s\n", colorYellow, t.ID, colorReset, t.Title, strings.Join(waiting, ", "))
		}
		fmt.Println()
	}

	// Summary line.
	total := len(tasks)
	doneCount := len(columns[store.StatusDone])
	inProgress := len(columns[store.StatusInProgress])

	fmt.Printf("%s%d tasks%s", colorBold, total, colorReset)
	if doneCount > 0 {
		fmt.Printf("  %s✓ %d done%s", colorGreen, doneCount, colorReset)
	}
	if inProgress > 0 {
		fmt.Printf("  %s● %d in progress%s", colorBlue, inProgress, colorReset)
	}
	if len(blocked) > 0 {
		fmt.Printf("  %s⛔ %d blocked%s", colorRed, len(blocked), colorReset)
	}
	fmt.Println()

	return nil
}

func priorityColor(priority string) string {
	switch priority {
	case "high":
		return colorRed + colorBold
	case "medium":
		return colorYellow
	case "low":
		return colorDim
	default:
		return ""
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
