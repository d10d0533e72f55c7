package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleFirmAdmin         = "firm_admin"
	RoleComplianceOfficer = "compliance_officer"
	RolePartner           = "partner"
	RoleAssociate         = "associate"
	RoleParalegal         = "paralegal"
	RoleBillingClerk      = "billing_clerk"
	RoleExternalPartner   = "external_partner"
)

// Definition is the static configuration attached to a role tag: its place in
// the hierarchy, the clearance band its holders may occupy, and the
// permissions the role carries on same-firm resources.
//
// The table is loaded once at process start and never mutated at runtime.
type Definition struct {
	HierarchyLevel int

	// ClearanceMin/Max bound the clearance level a principal holding this
	// role may be assigned (absent an explicit override, see CanOverrideRange).
	ClearanceMin int
	ClearanceMax int

	BasePermissions PermissionSet

	// CanOverrideRange marks roles whose holders may set clearance levels
	// outside the target's role-implied band.
	CanOverrideRange bool

	// CrossFirm marks roles eligible to consume cross-firm share grants.
	CrossFirm bool
}

var definitions = map[string]Definition{
	RoleFirmAdmin: {
		HierarchyLevel:   100,
		ClearanceMin:     1,
		ClearanceMax:     10,
		BasePermissions:  NewPermissionSet(PermRead, PermWrite, PermDelete, PermShare, PermManageACL, PermViewFinancialData),
		CanOverrideRange: true,
	},
	RoleComplianceOfficer: {
		HierarchyLevel:  90,
		ClearanceMin:    1,
		ClearanceMax:    10,
		BasePermissions: NewPermissionSet(PermRead, PermManageACL),
	},
	RolePartner: {
		HierarchyLevel:  80,
		ClearanceMin:    1,
		ClearanceMax:    8,
		BasePermissions: NewPermissionSet(PermRead, PermWrite, PermDelete, PermShare, PermViewFinancialData),
	},
	RoleAssociate: {
		HierarchyLevel:  60,
		ClearanceMin:    1,
		ClearanceMax:    5,
		BasePermissions: NewPermissionSet(PermRead, PermWrite),
	},
	RoleParalegal: {
		HierarchyLevel:  40,
		ClearanceMin:    1,
		ClearanceMax:    3,
		BasePermissions: NewPermissionSet(PermRead, PermWrite),
	},
	RoleBillingClerk: {
		HierarchyLevel:  30,
		ClearanceMin:    1,
		ClearanceMax:    2,
		BasePermissions: NewPermissionSet(PermRead, PermViewFinancialData),
	},
	RoleExternalPartner: {
		HierarchyLevel: 10,
		ClearanceMin:   0,
		ClearanceMax:   0,
		// No same-firm permissions: external partners only ever reach
		// resources through share grants.
		BasePermissions: NewPermissionSet(),
		CrossFirm:       true,
	},
}

// Lookup returns the static definition for a role tag.
func Lookup(role string) (Definition, bool) {
	d, ok := definitions[role]
	return d, ok
}

func IsFirmAdmin(role string) bool { return role == RoleFirmAdmin }

func IsComplianceRole(role string) bool {
	return role == RoleComplianceOfficer || role == RoleFirmAdmin
}
