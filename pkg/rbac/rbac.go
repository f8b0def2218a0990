package rbac

import "fmt"

// 权限常量
const (
	PermissionReadProject   = "project:read"
	PermissionCreateProject = "project:create"
	PermissionUpdateProject = "project:update"
	PermissionDeleteProject = "project:delete"

	PermissionReadTask   = "task:read"
	PermissionCreateTask = "task:create"
	PermissionUpdateTask = "task:update"
	PermissionDeleteTask = "task:delete"

	PermissionSubmitStage  = "stage:submit"
	PermissionApproveStage = "stage:approve"

	PermissionReportBlocker = "blocker:create"
	PermissionManageBlocker = "blocker:update"

	PermissionReplayOutbox = "outbox:replay"
)

// 角色常量
const (
	RolePM     = "pm"
	RoleMember = "member"
	RoleAdmin  = "admin"
)

var memberPermissions = []string{
	PermissionReadProject,
	PermissionReadTask,
	PermissionCreateTask,
	PermissionUpdateTask,
	PermissionDeleteTask,
	PermissionSubmitStage,
	PermissionReportBlocker,
}

var pmPermissions = append(append([]string{}, memberPermissions...),
	PermissionCreateProject,
	PermissionUpdateProject,
	PermissionDeleteProject,
	PermissionApproveStage,
	PermissionManageBlocker,
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleMember: memberPermissions,
	RolePM:     pmPermissions,
	RoleAdmin:  append(append([]string{}, pmPermissions...), PermissionReplayOutbox),
}

// ValidRole 判断角色是否已知
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 返回错误而不是布尔值，便于 handler 处理
func CheckPermission(userID int, role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	UserID     int
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("insufficient permissions: %s requires %s", e.Role, e.Permission)
}
