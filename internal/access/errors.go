package access

import (
	"errors"
	"fmt"

	"github.com/trellis-dev/trellis/internal/store"
)

var (
	// ErrNoMembership is returned when a user has no grant at all in a
	// workspace. Absence of any relationship is a hard denial, not a
	// low-privilege role.
	ErrNoMembership = errors.New("no membership in workspace")

	// ErrLastOwnerProtected is returned when a demotion or removal
	// would leave a workspace with zero owners.
	ErrLastOwnerProtected = errors.New("workspace must keep at least one owner")

	// ErrInsufficientRole is the sentinel matched by errors.Is for any
	// InsufficientRoleError.
	ErrInsufficientRole = errors.New("insufficient role")

	// ErrUnknownAction is returned for an action outside the enum.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownRole is returned for a role outside the enum.
	ErrUnknownRole = errors.New("unknown role")
)

// InsufficientRoleError reports a denied permission check along with
// the role that would have been needed and the role the user actually
// holds.
type InsufficientRoleError struct {
	Required store.Role
	Actual   store.Role
}

func (e *InsufficientRoleError) Error() string {
	return fmt.Sprintf("insufficient role: need %s, have %s", e.Required, e.Actual)
}

// Is lets errors.Is(err, ErrInsufficientRole) match.
func (e *InsufficientRoleError) Is(target error) bool {
	return target == ErrInsufficientRole
}
