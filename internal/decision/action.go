package decision

import "casevault-platform/internal/rbac"

// Action is the closed set of operations the engine decides on.
type Action string

const (
	ActionRead       Action = "read"
	ActionWrite      Action = "write"
	ActionDelete     Action = "delete"
	ActionPurge      Action = "purge"
	ActionShare      Action = "share"
	ActionReclassify Action = "reclassify"
)

func ValidAction(a Action) bool {
	_, ok := actionPermissions[a]
	return ok
}

// Destructive actions are unconditionally blocked on held resources.
// Reclassification counts: a downgrade can strip protection the same way a
// delete removes evidence.
func (a Action) Destructive() bool {
	return a == ActionDelete || a == ActionPurge || a == ActionReclassify
}

// actionPermissions maps each action to the permission that must be present
// in the principal's effective set. Purge is an intensified delete and does
// not get its own permission tag.
var actionPermissions = map[Action]rbac.Permission{
	ActionRead:       rbac.PermRead,
	ActionWrite:      rbac.PermWrite,
	ActionDelete:     rbac.PermDelete,
	ActionPurge:      rbac.PermDelete,
	ActionShare:      rbac.PermShare,
	ActionReclassify: rbac.PermManageACL,
}
