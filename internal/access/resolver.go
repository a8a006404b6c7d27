// Package access computes effective permissions. A user's effective
// role for a project is the maximum of their workspace-scoped and
// project-scoped grants; all permission checks reduce to comparing
// that role against a per-action minimum.
package access

import (
	"errors"
	"fmt"
	"sync"

	"github.com/trellis-dev/trellis/internal/store"
)

// Resolver answers permission questions and owns membership mutations.
//
// Membership mutations for one workspace are serialized through a
// per-workspace mutex so the last-owner count check and the write that
// follows it cannot interleave with a concurrent demotion.
type Resolver struct {
	store *store.Store

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates an access resolver over the given store.
func New(s *store.Store) *Resolver {
	return &Resolver{
		store: s,
		locks: map[int64]*sync.Mutex{},
	}
}

// workspaceLock returns the mutex serializing membership mutations for
// one workspace.
func (r *Resolver) workspaceLock(workspaceID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[workspaceID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[workspaceID] = l
	}
	return l
}

// EffectiveRole computes the user's role in a workspace, optionally
// folded with a project-scoped grant. A user with no workspace
// membership gets ErrNoMembership, never a sentinel role.
func (r *Resolver) EffectiveRole(userID, workspaceID int64, projectID *int64) (store.Role, error) {
	wm, err := r.store.GetWorkspaceMember(workspaceID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("%w: user %d in workspace %d", ErrNoMembership, userID, workspaceID)
	}
	if err != nil {
		return "", err
	}

	role := wm.Role
	if projectID != nil {
		pm, err := r.store.GetProjectMember(*projectID, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
		if err == nil {
			role = MaxRole(role, pm.Role)
		}
	}
	return role, nil
}

// Authorize checks that the user may perform action on the given
// workspace (and project, when the action is project-scoped).
func (r *Resolver) Authorize(userID int64, action Action, workspaceID int64, projectID *int64) error {
	required, ok := minRoleFor[action]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	actual, err := r.EffectiveRole(userID, workspaceID, projectID)
	if err != nil {
		return err
	}
	if Rank(actual) < Rank(required) {
		return &InsufficientRoleError{Required: required, Actual: actual}
	}
	return nil
}

// AssignWorkspaceRole creates or changes the target's workspace grant.
//
// The actor must hold at least admin. Touching an owner — assigning
// the owner role, or changing someone who currently holds it — is
// reserved for owners. Otherwise the actor must strictly outrank both
// the new role and the target's current one, so an admin can manage
// members and viewers but never mint a peer admin. Demoting the last
// owner is refused.
func (r *Resolver) AssignWorkspaceRole(actorID, targetID, workspaceID int64, newRole store.Role) error {
	if !store.ValidRole(newRole) {
		return fmt.Errorf("%w: %q", ErrUnknownRole, newRole)
	}

	l := r.workspaceLock(workspaceID)
	l.Lock()
	defer l.Unlock()

	actorRole, err := r.EffectiveRole(actorID, workspaceID, nil)
	if err != nil {
		return err
	}

	var currentRole store.Role
	current, err := r.store.GetWorkspaceMember(workspaceID, targetID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err == nil {
		currentRole = current.Role
	}

	if err := checkOutranks(actorRole, currentRole, newRole); err != nil {
		return err
	}

	// Last-owner protection: refuse the demotion that would leave the
	// workspace ownerless. Safe under the workspace lock held above.
	if currentRole == store.RoleOwner && newRole != store.RoleOwner {
		owners, err := r.store.CountWorkspaceOwners(workspaceID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return fmt.Errorf("%w: user %d is the only owner", ErrLastOwnerProtected, targetID)
		}
	}

	if err := r.store.SetWorkspaceMember(workspaceID, targetID, newRole); err != nil {
		return err
	}
	r.recordActivity(workspaceID, actorID, "role_assigned",
		fmt.Sprintf("User %d set to %s in workspace", targetID, newRole))
	return nil
}

// RemoveWorkspaceRole deletes the target's workspace grant, with the
// same actor preconditions and last-owner protection as a demotion.
func (r *Resolver) RemoveWorkspaceRole(actorID, targetID, workspaceID int64) error {
	l := r.workspaceLock(workspaceID)
	l.Lock()
	defer l.Unlock()

	actorRole, err := r.EffectiveRole(actorID, workspaceID, nil)
	if err != nil {
		return err
	}

	current, err := r.store.GetWorkspaceMember(workspaceID, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: user %d in workspace %d", ErrNoMembership, targetID, workspaceID)
	}
	if err != nil {
		return err
	}

	if err := checkOutranks(actorRole, current.Role, store.RoleViewer); err != nil {
		return err
	}

	if current.Role == store.RoleOwner {
		owners, err := r.store.CountWorkspaceOwners(workspaceID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return fmt.Errorf("%w: user %d is the only owner", ErrLastOwnerProtected, targetID)
		}
	}

	if _, err := r.store.RemoveWorkspaceMember(workspaceID, targetID); err != nil {
		return err
	}
	r.recordActivity(workspaceID, actorID, "member_removed",
		fmt.Sprintf("User %d removed from workspace", targetID))
	return nil
}

// AssignProjectRole creates or changes the target's project grant.
// Same outranking rule as workspace assignment, computed over the
// actor's effective role (workspace baseline folded in). The target
// must already be a workspace member. Project scope carries no owner
// cardinality constraint: the workspace owner floor is always there.
func (r *Resolver) AssignProjectRole(actorID, targetID, projectID int64, newRole store.Role) error {
	if !store.ValidRole(newRole) {
		return fmt.Errorf("%w: %q", ErrUnknownRole, newRole)
	}

	project, err := r.store.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("project %d: %w", projectID, err)
	}

	actorRole, err := r.EffectiveRole(actorID, project.WorkspaceID, &projectID)
	if err != nil {
		return err
	}

	// The target needs a workspace membership for a project grant to
	// build on.
	if _, err := r.store.GetWorkspaceMember(project.WorkspaceID, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: user %d in workspace %d", ErrNoMembership, targetID, project.WorkspaceID)
		}
		return err
	}

	var currentRole store.Role
	current, err := r.store.GetProjectMember(projectID, targetID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err == nil {
		currentRole = current.Role
	}

	if err := checkOutranks(actorRole, currentRole, newRole); err != nil {
		return err
	}

	if err := r.store.SetProjectMember(projectID, targetID, newRole); err != nil {
		return err
	}
	r.recordActivity(project.WorkspaceID, actorID, "role_assigned",
		fmt.Sprintf("User %d set to %s in project #%d", targetID, newRole, projectID))
	return nil
}

// RemoveProjectRole deletes the target's project grant. The user keeps
// whatever access their workspace role provides.
func (r *Resolver) RemoveProjectRole(actorID, targetID, projectID int64) error {
	project, err := r.store.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("project %d: %w", projectID, err)
	}

	actorRole, err := r.EffectiveRole(actorID, project.WorkspaceID, &projectID)
	if err != nil {
		return err
	}

	current, err := r.store.GetProjectMember(projectID, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: user %d in project %d", ErrNoMembership, targetID, projectID)
	}
	if err != nil {
		return err
	}

	if err := checkOutranks(actorRole, current.Role, store.RoleViewer); err != nil {
		return err
	}

	if _, err := r.store.RemoveProjectMember(projectID, targetID); err != nil {
		return err
	}
	r.recordActivity(project.WorkspaceID, actorID, "member_removed",
		fmt.Sprintf("User %d removed from project #%d", targetID, projectID))
	return nil
}

// checkOutranks enforces the actor precondition shared by all
// membership mutations: at least admin; owner involvement (on either
// the current or the new role) requires an owner actor; otherwise the
// actor strictly outranks both roles. An empty currentRole means the
// target has no grant yet and only the new role is constrained.
func checkOutranks(actorRole, currentRole, newRole store.Role) error {
	if Rank(actorRole) < Rank(store.RoleAdmin) {
		return &InsufficientRoleError{Required: store.RoleAdmin, Actual: actorRole}
	}
	if newRole == store.RoleOwner || currentRole == store.RoleOwner {
		if actorRole != store.RoleOwner {
			return &InsufficientRoleError{Required: store.RoleOwner, Actual: actorRole}
		}
		return nil
	}
	if Rank(actorRole) <= Rank(newRole) {
		return &InsufficientRoleError{Required: above(newRole), Actual: actorRole}
	}
	if currentRole != "" && Rank(actorRole) <= Rank(currentRole) {
		return &InsufficientRoleError{Required: above(currentRole), Actual: actorRole}
	}
	return nil
}

// above returns the weakest role strictly outranking r.
func above(r store.Role) store.Role {
	switch r {
	case store.RoleViewer:
		return store.RoleMember
	case store.RoleMember:
		return store.RoleAdmin
	default:
		return store.RoleOwner
	}
}

func (r *Resolver) recordActivity(workspaceID, actorID int64, eventType, content string) {
	actor := ""
	if u, err := r.store.GetUser(actorID); err == nil {
		actor = u.Name
	}
	r.store.AddActivity(workspaceID, nil, nil, actor, eventType, content)
}
