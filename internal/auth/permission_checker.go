package auth

import "context"

const (
	PermissionApproveSettlements = "approve_settlements"
	PermissionResolveComplaints  = "resolve_complaints"
	PermissionViewAllSettlements = "view_all_settlements"
	PermissionAdmin              = "admin"
)

type PermissionChecker interface {
	CanApproveSettlements(userPermissions []string) bool
	CanResolveComplaints(userPermissions []string) bool
	CanViewAllSettlements(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(userPermissions, []string{permission, PermissionAdmin}), nil
}

func (c *DefaultPermissionChecker) CanApproveSettlementsCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanApproveSettlements(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanResolveComplaintsCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanResolveComplaints(userPermissions), nil
}

func (c *DefaultPermissionChecker) IsAdminCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.IsAdmin(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanApproveSettlements(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionApproveSettlements, PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanResolveComplaints(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionResolveComplaints, PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanViewAllSettlements(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionViewAllSettlements, PermissionApproveSettlements, PermissionAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionAdmin})
}
