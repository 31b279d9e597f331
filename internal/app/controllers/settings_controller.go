package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"parkqr-http-service/internal/app/middleware"
	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/domain/services"
	"parkqr-http-service/internal/domain/services/container"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/error/response"
)

// InterfaceSettingsController 定义配置控制器接口
type InterfaceSettingsController interface {
	GetMenuToggles()
	UpdateMenuToggles()
}

// SettingsController 处理小区配置相关的请求
type SettingsController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSettingsController 创建一个新的配置控制器
func NewSettingsController(ctx *gin.Context, container *container.ServiceContainer) *SettingsController {
	return &SettingsController{
		Ctx:       ctx,
		Container: container,
	}
}

// UpdateMenuTogglesRequest 表示菜单开关更新请求
type UpdateMenuTogglesRequest struct {
	ComplexID uint               `json:"complex_id"`
	Toggles   models.MenuToggles `json:"toggles" binding:"required"`
}

// HandleSettingsFunc 返回一个处理配置请求的Gin处理函数
func HandleSettingsFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSettingsController(ctx, container)

		switch method {
		case "getMenuToggles":
			controller.GetMenuToggles()
		case "updateMenuToggles":
			controller.UpdateMenuToggles()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. GetMenuToggles 获取菜单开关
// @Summary      获取菜单开关
// @Description  管理员获取小区解析后的菜单开关（默认值与存量配置合并，旧版聚合键已展开）
// @Tags         Settings
// @Produce      json
// @Security     BearerAuth
// @Param        complex_id query int false "目标小区，仅SUPER可指定"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /settings/menus [get]
func (c *SettingsController) GetMenuToggles() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	complexID := c.targetComplexID(caller)
	menuService := c.Container.GetService("menu").(services.InterfaceMenuService)
	toggles, err := menuService.GetToggles(caller, complexID)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"complex_id": complexID,
		"toggles":    toggles,
	})
}

// 2. UpdateMenuToggles 更新菜单开关
// @Summary      更新菜单开关
// @Description  管理员更新小区菜单开关，SUPER需携带编辑模式头；更新后缓存失效
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateMenuTogglesRequest true "开关配置"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /settings/menus [put]
func (c *SettingsController) UpdateMenuToggles() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	var req UpdateMenuTogglesRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	complexID := req.ComplexID
	if caller.Role != models.RoleSuper || complexID == 0 {
		complexID = caller.ComplexID
	}

	menuService := c.Container.GetService("menu").(services.InterfaceMenuService)
	toggles, err := menuService.UpdateToggles(caller, complexID, req.Toggles)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"complex_id": complexID,
		"toggles":    toggles,
	})
}

// targetComplexID SUPER可通过查询参数指定目标小区，其他角色固定为自己小区
func (c *SettingsController) targetComplexID(caller *services.CallerContext) uint {
	if caller.Role == models.RoleSuper {
		if raw := c.Ctx.Query("complex_id"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil && id > 0 {
				return uint(id)
			}
		}
	}
	return caller.ComplexID
}
