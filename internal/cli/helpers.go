package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/trellis-dev/trellis/internal/access"
	"github.com/trellis-dev/trellis/internal/config"
	"github.com/trellis-dev/trellis/internal/graph"
	"github.com/trellis-dev/trellis/internal/store"
)

const trellisDirName = ".trellis"

// trellisPath returns the path to a file inside .trellis/.
func trellisPath(parts ...string) string {
	elems := append([]string{trellisDirName}, parts...)
	return filepath.Join(elems...)
}

// mustStore opens the store, returning an error if trellis is not
// initialized in the current directory.
func mustStore() (*store.Store, error) {
	dbPath := trellisPath("trellis.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("trellis not initialized. Run: trellis init")
	}
	return openStore(dbPath)
}

// openStore opens or creates the SQLite store at the given path.
func openStore(dbPath string) (*store.Store, error) {
	return store.New(dbPath)
}

// loadConfig reads .trellis/config.yaml, or returns defaults if it
// does not exist.
func loadConfig() *config.Config {
	cfg, err := config.Load(trellisPath("config.yaml"))
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// graphService builds the dependency graph service with the configured
// delete policy.
func graphService(s *store.Store) *graph.Service {
	cfg := loadConfig()
	return graph.New(s, graph.DeletePolicy(cfg.EffectiveDeletePolicy()))
}

// actor resolves the acting user from --as or the config default.
func actor(s *store.Store) (*store.User, error) {
	name := actorName
	if name == "" {
		name = loadConfig().Actor
	}
	if name == "" {
		return nil, fmt.Errorf("no actor: pass --as <user> or set actor in %s", trellisPath("config.yaml"))
	}
	u, err := s.GetUserByName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown user %q", name)
	}
	return u, nil
}

// authorizeForProject checks action against the project's workspace,
// folding in any project-scoped grant, and returns the actor.
func authorizeForProject(s *store.Store, action access.Action, projectID int64) (*store.User, error) {
	u, err := actor(s)
	if err != nil {
		return nil, err
	}
	p, err := s.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("project #%d not found", projectID)
	}
	if err := access.New(s).Authorize(u.ID, action, p.WorkspaceID, &projectID); err != nil {
		return nil, err
	}
	return u, nil
}

// authorizeForTask is authorizeForProject keyed by task.
func authorizeForTask(s *store.Store, action access.Action, taskID int64) (*store.User, *store.Task, error) {
	t, err := s.GetTask(taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("task #%d not found", taskID)
	}
	u, err := authorizeForProject(s, action, t.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return u, t, nil
}

// parseID parses a positional numeric ID argument.
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID: %s", what, arg)
	}
	return id, nil
}
