package auth

// Role represents a staff role carried in session tokens. The values match
// the masterdata role column.
type Role string

const (
	RoleNetworkOperator       Role = "network_operator"
	RoleRepairResponsible     Role = "repair_responsible"
	RoleInspectionResponsible Role = "inspection_responsible"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleNetworkOperator, RoleRepairResponsible, RoleInspectionResponsible:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies the required role. Roles are
// strictly ordered: an inspection responsible also clears repair and operator
// gates, and a repair responsible also clears operator gates.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleNetworkOperator:
		return 1
	case RoleRepairResponsible:
		return 2
	case RoleInspectionResponsible:
		return 3
	default:
		return 0
	}
}
