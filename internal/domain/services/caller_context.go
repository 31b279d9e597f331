package services

import (
	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
)

// CallerContext 表示一次请求的调用者身份与租户范围。
// 由认证中间件从Bearer令牌解析后构建，作为不可变值显式传入各服务，
// 不依赖任何全局状态，便于用合成上下文独立测试各组件。
type CallerContext struct {
	ProfileID  uint
	Role       models.Role
	ComplexID  uint
	BuildingID *uint
	UnitID     *uint
	Email      string
	EditMode   bool // SUPER写操作的显式编辑意图标记，来自请求头
}

// RequireAdminRole 要求调用者角色属于管理员集合 {SUPER, MAIN, SUB}
func (c *CallerContext) RequireAdminRole() error {
	if c == nil {
		return code.New(code.ErrUnauthenticated)
	}
	if !c.Role.IsAdmin() {
		return code.New(code.ErrForbidden)
	}
	return nil
}

// RequireComplexScope 要求调用者的租户范围覆盖目标小区。
// SUPER不受范围限制；其他角色必须与目标小区一致。
func (c *CallerContext) RequireComplexScope(targetComplexID uint) error {
	if c == nil {
		return code.New(code.ErrUnauthenticated)
	}
	if c.Role == models.RoleSuper {
		return nil
	}
	if c.ComplexID != targetComplexID {
		return code.New(code.ErrScopeViolation)
	}
	return nil
}

// RequireEditMode 要求SUPER角色的写操作携带显式编辑模式标记。
// SUPER可以跨租户写入，必须额外声明意图以防误操作；其他角色已被范围约束，免除该检查。
func (c *CallerContext) RequireEditMode() error {
	if c == nil {
		return code.New(code.ErrUnauthenticated)
	}
	if c.Role == models.RoleSuper && !c.EditMode {
		return code.New(code.ErrEditModeRequired)
	}
	return nil
}
