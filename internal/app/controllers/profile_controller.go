package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"parkqr-http-service/internal/app/middleware"
	"parkqr-http-service/internal/domain/services"
	"parkqr-http-service/internal/domain/services/container"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/error/response"
)

// InterfaceProfileController 定义账户控制器接口
type InterfaceProfileController interface {
	GetMe()
	UpdateMe()
	ListProfiles()
	DeleteProfile()
}

// ProfileController 处理账户相关的请求
type ProfileController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewProfileController 创建一个新的账户控制器
func NewProfileController(ctx *gin.Context, container *container.ServiceContainer) *ProfileController {
	return &ProfileController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleProfileFunc 返回一个处理账户请求的Gin处理函数
func HandleProfileFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewProfileController(ctx, container)

		switch method {
		case "getMe":
			controller.GetMe()
		case "updateMe":
			controller.UpdateMe()
		case "listProfiles":
			controller.ListProfiles()
		case "deleteProfile":
			controller.DeleteProfile()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. GetMe 获取当前账户
// @Summary      获取当前账户
// @Description  返回当前账户资料及名下车辆与电话
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /profiles/me [get]
func (c *ProfileController) GetMe() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	profileService := c.Container.GetService("profile").(services.InterfaceProfileService)
	profile, err := profileService.GetByID(caller.ProfileID)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, profile)
}

// 2. UpdateMe 自助更新资料
// @Summary      自助更新资料
// @Description  更新姓名/电话/密码，可声明车辆；更新后向小区管理员与超管广播profile_update通知
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.UpdateProfileRequest true "更新内容"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /profiles/me [put]
func (c *ProfileController) UpdateMe() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	var req services.UpdateProfileRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	profileService := c.Container.GetService("profile").(services.InterfaceProfileService)
	profile, err := profileService.UpdateSelf(caller, req)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, profile)
}

// 3. ListProfiles 管理员列出范围内的账户
// @Summary      账户列表
// @Description  管理员分页列出范围内的账户，SUPER不限小区
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Param        pageNum query int false "页码，默认为1"
// @Param        pageSize query int false "每页条数，默认为10"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /profiles [get]
func (c *ProfileController) ListProfiles() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	pagination := parsePagination(c.Ctx)
	profileService := c.Container.GetService("profile").(services.InterfaceProfileService)
	profiles, total, err := profileService.ListByScope(caller, pagination)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"total":    total,
		"pageNum":  pagination.PageNum,
		"pageSize": pagination.PageSize,
		"data":     profiles,
	})
}

// 4. DeleteProfile 删除账户
// @Summary      删除账户
// @Description  管理员删除范围内的账户，级联删除名下车辆与QR
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "账户ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /profiles/{id} [delete]
func (c *ProfileController) DeleteProfile() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	id, err := strconv.Atoi(c.Ctx.Param("id"))
	if err != nil || id <= 0 {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的账户ID", nil)
		return
	}

	profileService := c.Container.GetService("profile").(services.InterfaceProfileService)
	if err := profileService.Delete(caller, uint(id)); err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}
