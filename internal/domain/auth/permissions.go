package auth

import "context"

const (
	RoleManager    = "manager"
	RoleStaff      = "staff"
	RoleAccountant = "accountant"
)

const (
	PermDashboardRead = "dashboard.read"
	PermLeaveRead     = "leave.read"
	PermLeaveApprove  = "leave.approve"
	PermMenuRead      = "menu.read"
	PermMenuWrite     = "menu.write"
	PermEstimationRun = "estimation.run"
	PermUsersRead     = "users.read"
	PermUsersWrite    = "users.write"
	PermBillingRead   = "billing.read"
	PermFeedbackRead  = "feedback.read"
	PermFeedbackWrite = "feedback.write"
	PermAnalyticsRead = "analytics.read"
	PermAuditRead     = "audit.read"
	PermSystemAdmin   = "admin.system"
)

var AllPermissions = []string{
	PermDashboardRead,
	PermLeaveRead,
	PermLeaveApprove,
	PermMenuRead,
	PermMenuWrite,
	PermEstimationRun,
	PermUsersRead,
	PermUsersWrite,
	PermBillingRead,
	PermFeedbackRead,
	PermFeedbackWrite,
	PermAnalyticsRead,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleManager: AllPermissions,
	RoleStaff: {
		PermDashboardRead,
		PermLeaveRead,
		PermLeaveApprove,
		PermMenuRead,
		PermMenuWrite,
		PermEstimationRun,
		PermUsersRead,
		PermFeedbackRead,
		PermFeedbackWrite,
		PermAnalyticsRead,
	},
	RoleAccountant: {
		PermDashboardRead,
		PermBillingRead,
		PermUsersRead,
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}
