package rbac

// EffectiveAuthority is the resolved capability view of a principal's role
// set and clearance level. It is computed per evaluation from the static
// role table; the clearance level itself is principal-intrinsic state.
type EffectiveAuthority struct {
	ClearanceLevel int

	// HierarchyLevel is the highest hierarchy level across the role set.
	HierarchyLevel int

	// Capabilities is the union of base permissions across the role set.
	Capabilities PermissionSet

	// ClearanceMin/Max is the band implied by the role set: the lowest min
	// and highest max across roles. Clearance mutations must land inside it
	// unless the acting principal can override ranges.
	ClearanceMin int
	ClearanceMax int

	CanOverrideRange bool
	CrossFirm        bool
}

// Resolve maps a role set and clearance level to an effective capability set.
// Unknown role tags are ignored rather than failing the evaluation: a stale
// token must degrade to less access, never to an error that blocks the
// decision path.
func Resolve(clearanceLevel int, roles []string) EffectiveAuthority {
	out := EffectiveAuthority{
		ClearanceLevel: clearanceLevel,
		Capabilities:   NewPermissionSet(),

		// Inverted band: until a role is recognized, no level is admitted.
		ClearanceMin: 1,
		ClearanceMax: 0,
	}

	for _, r := range roles {
		d, ok := Lookup(r)
		if !ok {
			continue
		}
		out.Capabilities = out.Capabilities.Union(d.BasePermissions)
		if d.HierarchyLevel > out.HierarchyLevel {
			out.HierarchyLevel = d.HierarchyLevel
		}
		if d.ClearanceMin < out.ClearanceMin {
			out.ClearanceMin = d.ClearanceMin
		}
		if d.ClearanceMax > out.ClearanceMax {
			out.ClearanceMax = d.ClearanceMax
		}
		if d.CanOverrideRange {
			out.CanOverrideRange = true
		}
		if d.CrossFirm {
			out.CrossFirm = true
		}
	}
	return out
}

// InClearanceRange reports whether level falls inside the role-implied band.
// A principal with no recognized roles has an empty band and admits nothing.
func (a EffectiveAuthority) InClearanceRange(level int) bool {
	return level >= a.ClearanceMin && level <= a.ClearanceMax
}

// Dominates reports whether the acting authority strictly dominates the
// target at the given levels: strictly higher in the role hierarchy and
// strictly above both clearance levels involved in the change.
func (a EffectiveAuthority) Dominates(target EffectiveAuthority, levels ...int) bool {
	if a.HierarchyLevel <= target.HierarchyLevel {
		return false
	}
	for _, l := range levels {
		if a.ClearanceLevel <= l {
			return false
		}
	}
	return true
}
