package access

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/trellis-dev/trellis/internal/store"
)

type fixture struct {
	store     *store.Store
	resolver  *Resolver
	workspace *store.Workspace
	project   *store.Project
}

func testFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	w, err := s.CreateWorkspace("W")
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	p, err := s.CreateProject(w.ID, "P", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return &fixture{store: s, resolver: New(s), workspace: w, project: p}
}

// user creates a user and optionally seeds a workspace grant directly.
func (f *fixture) user(t *testing.T, name string, role store.Role) *store.User {
	t.Helper()
	u, err := f.store.CreateUser(name, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if role != "" {
		if err := f.store.SetWorkspaceMember(f.workspace.ID, u.ID, role); err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}
	return u
}

func TestEffectiveRole_WorkspaceOnly(t *testing.T) {
	f := testFixture(t)
	u := f.user(t, "alice", store.RoleMember)

	role, err := f.resolver.EffectiveRole(u.ID, f.workspace.ID, nil)
	if err != nil {
		t.Fatalf("EffectiveRole: %v", err)
	}
	if role != store.RoleMember {
		t.Errorf("expected member, got %s", role)
	}
}

func TestEffectiveRole_ProjectGrantRaises(t *testing.T) {
	f := testFixture(t)
	u := f.user(t, "alice", store.RoleViewer)
	f.store.SetProjectMember(f.project.ID, u.ID, store.RoleAdmin)

	role, err := f.resolver.EffectiveRole(u.ID, f.workspace.ID, &f.project.ID)
	if err != nil {
		t.Fatalf("EffectiveRole: %v", err)
	}
	if role != store.RoleAdmin {
		t.Errorf("expected admin, got %s", role)
	}
}

func TestEffectiveRole_ProjectGrantNeverLowers(t *testing.T) {
	f := testFixture(t)
	u := f.user(t, "alice", store.RoleAdmin)
	f.store.SetProjectMember(f.project.ID, u.ID, store.RoleViewer)

	role, err := f.resolver.EffectiveRole(u.ID, f.workspace.ID, &f.project.ID)
	if err != nil {
		t.Fatalf("EffectiveRole: %v", err)
	}
	if role != store.RoleAdmin {
		t.Errorf("workspace admin must not be lowered by project viewer grant, got %s", role)
	}
}

func TestEffectiveRole_NoMembership(t *testing.T) {
	f := testFixture(t)
	u := f.user(t, "stranger", "")

	_, err := f.resolver.EffectiveRole(u.ID, f.workspace.ID, nil)
	if !errors.Is(err, ErrNoMembership) {
		t.Fatalf("expected ErrNoMembership, got %v", err)
	}

	// A project grant without workspace membership still resolves to no
	// membership.
	f.store.SetProjectMember(f.project.ID, u.ID, store.RoleAdmin)
	_, err = f.resolver.EffectiveRole(u.ID, f.workspace.ID, &f.project.ID)
	if !errors.Is(err, ErrNoMembership) {
		t.Fatalf("expected ErrNoMembership despite project grant, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	f := testFixture(t)
	viewer := f.user(t, "viewer", store.RoleViewer)
	member := f.user(t, "member", store.RoleMember)
	admin := f.user(t, "admin", store.RoleAdmin)
	owner := f.user(t, "owner", store.RoleOwner)

	cases := []struct {
		name   string
		userID int64
		action Action
		ok     bool
	}{
		{"viewer can view", viewer.ID, ActionViewProject, true},
		{"viewer cannot create task", viewer.ID, ActionCreateTask, false},
		{"member can create task", member.ID, ActionCreateTask, true},
		{"member can manage deps", member.ID, ActionManageDependencies, true},
		{"member cannot manage members", member.ID, ActionManageMembers, false},
		{"admin can edit project", admin.ID, ActionEditProject, true},
		{"admin cannot delete project", admin.ID, ActionDeleteProject, false},
		{"owner can delete project", owner.ID, ActionDeleteProject, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.resolver.Authorize(tc.userID, tc.action, f.workspace.ID, &f.project.ID)
			if tc.ok && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInsufficientRole) {
				t.Errorf("expected ErrInsufficientRole, got %v", err)
			}
		})
	}
}

func TestAuthorize_UnknownAction(t *testing.T) {
	f := testFixture(t)
	u := f.user(t, "alice", store.RoleOwner)

	err := f.resolver.Authorize(u.ID, "launch_rockets", f.workspace.ID, nil)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestInsufficientRoleError_Detail(t *testing.T) {
	f := testFixture(t)
	u := f.user(t, "viewer", store.RoleViewer)

	err := f.resolver.Authorize(u.ID, ActionCreateTask, f.workspace.ID, nil)
	var ire *InsufficientRoleError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InsufficientRoleError, got %v", err)
	}
	if ire.Required != store.RoleMember || ire.Actual != store.RoleViewer {
		t.Errorf("unexpected detail: %+v", ire)
	}
}

func TestAssignWorkspaceRole_AdminGrantsMember(t *testing.T) {
	f := testFixture(t)
	admin := f.user(t, "admin", store.RoleAdmin)
	target := f.user(t, "newbie", "")

	if err := f.resolver.AssignWorkspaceRole(admin.ID, target.ID, f.workspace.ID, store.RoleMember); err != nil {
		t.Fatalf("AssignWorkspaceRole: %v", err)
	}
	m, _ := f.store.GetWorkspaceMember(f.workspace.ID, target.ID)
	if m.Role != store.RoleMember {
		t.Errorf("expected member, got %s", m.Role)
	}
}

func TestAssignWorkspaceRole_AdminCannotMintAdmin(t *testing.T) {
	f := testFixture(t)
	admin := f.user(t, "admin", store.RoleAdmin)
	target := f.user(t, "peer", "")

	err := f.resolver.AssignWorkspaceRole(admin.ID, target.ID, f.workspace.ID, store.RoleAdmin)
	if !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole, got %v", err)
	}
}

func TestAssignWorkspaceRole_AdminCannotTouchPeerAdmin(t *testing.T) {
	f := testFixture(t)
	admin := f.user(t, "admin", store.RoleAdmin)
	peer := f.user(t, "peer", store.RoleAdmin)

	err := f.resolver.AssignWorkspaceRole(admin.ID, peer.ID, f.workspace.ID, store.RoleViewer)
	if !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole, got %v", err)
	}
}

func TestAssignWorkspaceRole_OnlyOwnerMintsOwner(t *testing.T) {
	f := testFixture(t)
	admin := f.user(t, "admin", store.RoleAdmin)
	owner := f.user(t, "owner", store.RoleOwner)
	target := f.user(t, "heir", store.RoleMember)

	err := f.resolver.AssignWorkspaceRole(admin.ID, target.ID, f.workspace.ID, store.RoleOwner)
	if !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole for admin, got %v", err)
	}

	if err := f.resolver.AssignWorkspaceRole(owner.ID, target.ID, f.workspace.ID, store.RoleOwner); err != nil {
		t.Fatalf("owner minting owner: %v", err)
	}
}

func TestAssignWorkspaceRole_MemberCannotGrant(t *testing.T) {
	f := testFixture(t)
	member := f.user(t, "member", store.RoleMember)
	target := f.user(t, "newbie", "")

	err := f.resolver.AssignWorkspaceRole(member.ID, target.ID, f.workspace.ID, store.RoleViewer)
	if !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole, got %v", err)
	}
}

func TestAssignWorkspaceRole_LastOwnerProtected(t *testing.T) {
	f := testFixture(t)
	owner := f.user(t, "owner", store.RoleOwner)

	// Self-demotion of the only owner is refused.
	err := f.resolver.AssignWorkspaceRole(owner.ID, owner.ID, f.workspace.ID, store.RoleAdmin)
	if !errors.Is(err, ErrLastOwnerProtected) {
		t.Fatalf("expected ErrLastOwnerProtected, got %v", err)
	}

	// With a second owner in place the demotion goes through.
	second := f.user(t, "second", store.RoleMember)
	if err := f.resolver.AssignWorkspaceRole(owner.ID, second.ID, f.workspace.ID, store.RoleOwner); err != nil {
		t.Fatalf("promote second owner: %v", err)
	}
	if err := f.resolver.AssignWorkspaceRole(owner.ID, owner.ID, f.workspace.ID, store.RoleAdmin); err != nil {
		t.Fatalf("demote first owner: %v", err)
	}
}

func TestRemoveWorkspaceRole_LastOwnerProtected(t *testing.T) {
	f := testFixture(t)
	owner := f.user(t, "owner", store.RoleOwner)

	err := f.resolver.RemoveWorkspaceRole(owner.ID, owner.ID, f.workspace.ID)
	if !errors.Is(err, ErrLastOwnerProtected) {
		t.Fatalf("expected ErrLastOwnerProtected, got %v", err)
	}
}

func TestRemoveWorkspaceRole(t *testing.T) {
	f := testFixture(t)
	owner := f.user(t, "owner", store.RoleOwner)
	member := f.user(t, "member", store.RoleMember)

	if err := f.resolver.RemoveWorkspaceRole(owner.ID, member.ID, f.workspace.ID); err != nil {
		t.Fatalf("RemoveWorkspaceRole: %v", err)
	}
	if _, err := f.store.GetWorkspaceMember(f.workspace.ID, member.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected grant removed, got %v", err)
	}

	err := f.resolver.RemoveWorkspaceRole(owner.ID, member.ID, f.workspace.ID)
	if !errors.Is(err, ErrNoMembership) {
		t.Fatalf("expected ErrNoMembership on second removal, got %v", err)
	}
}

// Concurrent demotions of two owners must leave at least one in place.
func TestAssignWorkspaceRole_ConcurrentDemotionsKeepOneOwner(t *testing.T) {
	for round := 0; round < 10; round++ {
		f := testFixture(t)
		o1 := f.user(t, "o1", store.RoleOwner)
		o2 := f.user(t, "o2", store.RoleOwner)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.resolver.AssignWorkspaceRole(o1.ID, o2.ID, f.workspace.ID, store.RoleMember)
		}()
		go func() {
			defer wg.Done()
			f.resolver.AssignWorkspaceRole(o2.ID, o1.ID, f.workspace.ID, store.RoleMember)
		}()
		wg.Wait()

		owners, err := f.store.CountWorkspaceOwners(f.workspace.ID)
		if err != nil {
			t.Fatalf("count owners: %v", err)
		}
		if owners < 1 {
			t.Fatal("workspace left with no owner")
		}
	}
}

func TestAssignProjectRole(t *testing.T) {
	f := testFixture(t)
	admin := f.user(t, "admin", store.RoleAdmin)
	target := f.user(t, "contractor", store.RoleViewer)

	if err := f.resolver.AssignProjectRole(admin.ID, target.ID, f.project.ID, store.RoleMember); err != nil {
		t.Fatalf("AssignProjectRole: %v", err)
	}

	role, _ := f.resolver.EffectiveRole(target.ID, f.workspace.ID, &f.project.ID)
	if role != store.RoleMember {
		t.Errorf("expected member, got %s", role)
	}

	// Workspace baseline elsewhere is unchanged.
	role, _ = f.resolver.EffectiveRole(target.ID, f.workspace.ID, nil)
	if role != store.RoleViewer {
		t.Errorf("expected viewer outside project, got %s", role)
	}
}

func TestAssignProjectRole_RequiresWorkspaceMembership(t *testing.T) {
	f := testFixture(t)
	admin := f.user(t, "admin", store.RoleAdmin)
	outsider := f.user(t, "outsider", "")

	err := f.resolver.AssignProjectRole(admin.ID, outsider.ID, f.project.ID, store.RoleMember)
	if !errors.Is(err, ErrNoMembership) {
		t.Fatalf("expected ErrNoMembership, got %v", err)
	}
}

func TestAssignProjectRole_ActorUsesEffectiveRole(t *testing.T) {
	f := testFixture(t)
	// Actor is only a workspace viewer but project admin.
	actor := f.user(t, "actor", store.RoleViewer)
	f.store.SetProjectMember(f.project.ID, actor.ID, store.RoleAdmin)
	target := f.user(t, "target", store.RoleViewer)

	if err := f.resolver.AssignProjectRole(actor.ID, target.ID, f.project.ID, store.RoleMember); err != nil {
		t.Fatalf("project admin should manage project grants: %v", err)
	}
}

func TestRemoveProjectRole(t *testing.T) {
	f := testFixture(t)
	admin := f.user(t, "admin", store.RoleAdmin)
	target := f.user(t, "target", store.RoleMember)
	f.store.SetProjectMember(f.project.ID, target.ID, store.RoleMember)

	if err := f.resolver.RemoveProjectRole(admin.ID, target.ID, f.project.ID); err != nil {
		t.Fatalf("RemoveProjectRole: %v", err)
	}

	// Workspace role still applies.
	role, _ := f.resolver.EffectiveRole(target.ID, f.workspace.ID, &f.project.ID)
	if role != store.RoleMember {
		t.Errorf("expected workspace member role to remain, got %s", role)
	}
}

func TestMaxRole(t *testing.T) {
	if got := MaxRole(store.RoleViewer, store.RoleAdmin); got != store.RoleAdmin {
		t.Errorf("MaxRole(viewer, admin) = %s", got)
	}
	if got := MaxRole(store.RoleOwner, store.RoleMember); got != store.RoleOwner {
		t.Errorf("MaxRole(owner, member) = %s", got)
	}
	if got := MaxRole(store.RoleMember, store.RoleMember); got != store.RoleMember {
		t.Errorf("MaxRole(member, member) = %s", got)
	}
}

func TestRank_Order(t *testing.T) {
	order := []store.Role{store.RoleViewer, store.RoleMember, store.RoleAdmin, store.RoleOwner}
	for i := 1; i < len(order); i++ {
		if Rank(order[i-1]) >= Rank(order[i]) {
			t.Errorf("expected %s < %s", order[i-1], order[i])
		}
	}
	if Rank("intern") != -1 {
		t.Errorf("unknown role should rank -1, got %d", Rank("intern"))
	}
}
