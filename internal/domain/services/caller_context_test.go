package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
)

func TestRequireAdminRole(t *testing.T) {
	cases := []struct {
		role     models.Role
		wantCode int
	}{
		{models.RoleSuper, 0},
		{models.RoleMain, 0},
		{models.RoleSub, 0},
		{models.RoleGuard, code.ErrForbidden},
		{models.RoleResident, code.ErrForbidden},
	}
	for _, tc := range cases {
		caller := &CallerContext{ProfileID: 1, Role: tc.role, ComplexID: 1}
		err := caller.RequireAdminRole()
		if tc.wantCode == 0 {
			assert.NoError(t, err, "role %s", tc.role)
		} else {
			assert.True(t, code.Is(err, tc.wantCode), "role %s", tc.role)
		}
	}

	var nilCaller *CallerContext
	assert.True(t, code.Is(nilCaller.RequireAdminRole(), code.ErrUnauthenticated))
}

func TestRequireComplexScope(t *testing.T) {
	main := &CallerContext{ProfileID: 1, Role: models.RoleMain, ComplexID: 1}
	assert.NoError(t, main.RequireComplexScope(1))
	assert.True(t, code.Is(main.RequireComplexScope(2), code.ErrScopeViolation))

	// SUPER不受范围限制
	super := &CallerContext{ProfileID: 2, Role: models.RoleSuper, ComplexID: 1}
	assert.NoError(t, super.RequireComplexScope(2))

	// 越权与权限不足对外形态一致，不暴露范围外资源的存在
	assert.Equal(t,
		code.GetMessage(code.ErrForbidden),
		code.GetMessage(code.ErrScopeViolation))
}

func TestRequireEditMode(t *testing.T) {
	super := &CallerContext{ProfileID: 1, Role: models.RoleSuper, ComplexID: 1}
	assert.True(t, code.Is(super.RequireEditMode(), code.ErrEditModeRequired))

	super.EditMode = true
	assert.NoError(t, super.RequireEditMode())

	// 非SUPER角色免除编辑模式检查
	main := &CallerContext{ProfileID: 2, Role: models.RoleMain, ComplexID: 1}
	assert.NoError(t, main.RequireEditMode())
}
