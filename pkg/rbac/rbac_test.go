package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleMember, PermissionSubmitStage, true},
		{RoleMember, PermissionApproveStage, false},
		{RoleMember, PermissionDeleteTask, true},
		{RoleMember, PermissionManageBlocker, false},
		{RolePM, PermissionApproveStage, true},
		{RolePM, PermissionSubmitStage, true},
		{RolePM, PermissionReplayOutbox, false},
		{RoleAdmin, PermissionReplayOutbox, true},
		{"guest", PermissionReadTask, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.permission, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.permission))
		})
	}
}

func TestCheckPermission(t *testing.T) {
	assert.NoError(t, CheckPermission(1, RolePM, PermissionApproveStage))

	err := CheckPermission(2, RoleMember, PermissionApproveStage)
	var denied *PermissionDeniedError
	assert.True(t, errors.As(err, &denied))
	assert.Equal(t, 2, denied.UserID)
	assert.Equal(t, PermissionApproveStage, denied.Permission)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RolePM))
	assert.True(t, ValidRole(RoleMember))
	assert.False(t, ValidRole("owner"))
}
