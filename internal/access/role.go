package access

import "github.com/trellis-dev/trellis/internal/store"

// roleRank maps each role to its position in the total order
// owner > admin > member > viewer.
var roleRank = map[store.Role]int{
	store.RoleViewer: 0,
	store.RoleMember: 1,
	store.RoleAdmin:  2,
	store.RoleOwner:  3,
}

// Rank returns the numeric privilege of a role. Unknown roles rank
// below viewer.
func Rank(r store.Role) int {
	rank, ok := roleRank[r]
	if !ok {
		return -1
	}
	return rank
}

// MaxRole returns the higher-privilege of two roles. This is the whole
// precedence rule between workspace- and project-scoped grants: a
// project grant can raise privilege above the workspace baseline but
// never lower it.
func MaxRole(a, b store.Role) store.Role {
	if Rank(b) > Rank(a) {
		return b
	}
	return a
}

// Action is an operation a user may attempt on a project or workspace.
type Action string

const (
	ActionViewProject        Action = "view_project"
	ActionEditProject        Action = "edit_project"
	ActionDeleteProject      Action = "delete_project"
	ActionManageMembers      Action = "manage_members"
	ActionCreateTask         Action = "create_task"
	ActionEditTask           Action = "edit_task"
	ActionDeleteTask         Action = "delete_task"
	ActionManageLabels       Action = "manage_labels"
	ActionComment            Action = "comment"
	ActionManageDependencies Action = "manage_dependencies"
)

// minRoleFor is the minimum effective role each action requires.
var minRoleFor = map[Action]store.Role{
	ActionViewProject:        store.RoleViewer,
	ActionEditProject:        store.RoleAdmin,
	ActionDeleteProject:      store.RoleOwner,
	ActionManageMembers:      store.RoleAdmin,
	ActionCreateTask:         store.RoleMember,
	ActionEditTask:           store.RoleMember,
	ActionDeleteTask:         store.RoleMember,
	ActionManageLabels:       store.RoleMember,
	ActionComment:            store.RoleMember,
	ActionManageDependencies: store.RoleMember,
}
