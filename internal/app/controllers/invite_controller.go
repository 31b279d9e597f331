package controllers

import (
	"github.com/gin-gonic/gin"

	"parkqr-http-service/internal/app/middleware"
	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/domain/services"
	"parkqr-http-service/internal/domain/services/container"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/error/response"
)

// InterfaceInviteController 定义邀请控制器接口
type InterfaceInviteController interface {
	SubmitInvite()
	LookupInvite()
	ListInvites()
	AcceptInvite()
	BulkInvite()
}

// InviteController 处理邀请相关的请求
type InviteController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewInviteController 创建一个新的邀请控制器
func NewInviteController(ctx *gin.Context, container *container.ServiceContainer) *InviteController {
	return &InviteController{
		Ctx:       ctx,
		Container: container,
	}
}

// SubmitInviteRequest 表示邀请提交请求，按action分流：create创建并发送，accept接受
type SubmitInviteRequest struct {
	Action string `json:"action" binding:"required" example:"create"`

	// action=create
	Email        string `json:"email" example:"resident@example.com"`
	Role         string `json:"role" example:"RESIDENT"`
	ComplexID    uint   `json:"complex_id" example:"1"`
	BuildingCode string `json:"building_code" example:"101"`
	UnitCode     string `json:"unit_code" example:"1502"`

	// action=accept
	Token    string `json:"token"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`

	// 车辆预声明（两种action都可携带）
	HasVehicle  *bool  `json:"has_vehicle"`
	Plate       string `json:"plate" example:"12가3456"`
	VehicleType string `json:"vehicle_type" example:"EV"`
}

// BulkInviteRequest 表示批量邀请请求，action为upload或send
type BulkInviteRequest struct {
	Action    string                   `json:"action" binding:"required" example:"upload"`
	ComplexID uint                     `json:"complex_id"`
	Rows      []services.BulkInviteRow `json:"rows"`
	IDs       []uint                   `json:"ids"`
}

// HandleInviteFunc 返回一个处理邀请请求的Gin处理函数
func HandleInviteFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewInviteController(ctx, container)

		switch method {
		case "submitInvite":
			controller.SubmitInvite()
		case "lookupInvite":
			controller.LookupInvite()
		case "listInvites":
			controller.ListInvites()
		case "acceptInvite":
			controller.AcceptInvite()
		case "bulkInvite":
			controller.BulkInvite()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. SubmitInvite 提交邀请动作
// @Summary      提交邀请动作
// @Description  action=create 创建并发送邀请（需管理员），action=accept 接受邀请
// @Tags         Invite
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SubmitInviteRequest true "邀请动作"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /invites [post]
func (c *InviteController) SubmitInvite() {
	var req SubmitInviteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	inviteService := c.Container.GetService("invite").(services.InterfaceInviteService)
	switch req.Action {
	case "create":
		caller := middleware.GetCaller(c.Ctx)
		if caller == nil {
			response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
			return
		}
		hasVehicle := req.HasVehicle != nil && *req.HasVehicle
		invite, err := inviteService.CreateAndSend(caller, services.CreateInviteRequest{
			Email:        req.Email,
			Role:         req.Role,
			ComplexID:    req.ComplexID,
			BuildingCode: req.BuildingCode,
			UnitCode:     req.UnitCode,
			HasVehicle:   hasVehicle,
			Plate:        req.Plate,
			VehicleType:  req.VehicleType,
		})
		if err != nil {
			response.FailErr(c.Ctx, err)
			return
		}
		response.Success(c.Ctx, invite)
	case "accept":
		c.accept(services.AcceptInviteRequest{
			Token:       req.Token,
			Password:    req.Password,
			Name:        req.Name,
			Phone:       req.Phone,
			HasVehicle:  req.HasVehicle,
			Plate:       req.Plate,
			VehicleType: req.VehicleType,
		})
	default:
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的action", nil)
	}
}

// 2. LookupInvite 按令牌查询邀请
// @Summary      按令牌查询邀请
// @Description  未认证查询邀请摘要，过期返回410并删除，已接受返回400
// @Tags         Invite
// @Produce      json
// @Param        token query string true "邀请令牌"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      410  {object}  ErrorResponse
// @Router       /invites/lookup [get]
func (c *InviteController) LookupInvite() {
	token := c.Ctx.Query("token")
	if token == "" {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "缺少token参数", nil)
		return
	}

	inviteService := c.Container.GetService("invite").(services.InterfaceInviteService)
	invite, err := inviteService.Lookup(token)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"email":       invite.Email,
		"role":        invite.Role,
		"status":      invite.Status,
		"complex_id":  invite.ComplexID,
		"has_vehicle": invite.HasVehicle,
		"plate":       invite.Plate,
		"sent_at":     invite.SentAt,
	})
}

// 3. ListInvites 列出范围内的邀请
// @Summary      列出邀请
// @Description  管理员列出自己范围内的邀请，列出前执行过期清理
// @Tags         Invite
// @Produce      json
// @Security     BearerAuth
// @Param        pageNum query int false "页码，默认为1"
// @Param        pageSize query int false "每页条数，默认为10"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /invites [get]
func (c *InviteController) ListInvites() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	pagination := parsePagination(c.Ctx)
	inviteService := c.Container.GetService("invite").(services.InterfaceInviteService)
	invites, total, err := inviteService.List(caller, pagination)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"total":    total,
		"pageNum":  pagination.PageNum,
		"pageSize": pagination.PageSize,
		"data":     invites,
	})
}

// 4. AcceptInvite 接受邀请（公开入口）
// @Summary      接受邀请
// @Description  凭令牌接受邀请，创建账户及可选的车辆与QR
// @Tags         Invite
// @Accept       json
// @Produce      json
// @Param        request body services.AcceptInviteRequest true "接受请求"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      410  {object}  ErrorResponse
// @Router       /invites/accept [post]
func (c *InviteController) AcceptInvite() {
	var req services.AcceptInviteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}
	c.accept(req)
}

// 5. BulkInvite 批量邀请
// @Summary      批量邀请
// @Description  action=upload 批量创建PENDING邀请，action=send 按ID批量发送
// @Tags         Invite
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BulkInviteRequest true "批量动作"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /invites/bulk [post]
func (c *InviteController) BulkInvite() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	var req BulkInviteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	inviteService := c.Container.GetService("invite").(services.InterfaceInviteService)
	switch req.Action {
	case "upload":
		batchID, invites, err := inviteService.BulkUpload(caller, req.ComplexID, req.Rows)
		if err != nil {
			response.FailErr(c.Ctx, err)
			return
		}
		response.Success(c.Ctx, gin.H{
			"batch_id": batchID,
			"count":    len(invites),
			"data":     invites,
		})
	case "send":
		sent, err := inviteService.BulkSend(caller, req.IDs)
		if err != nil {
			response.FailErr(c.Ctx, err)
			return
		}
		response.Success(c.Ctx, gin.H{"sent": sent})
	default:
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的action", nil)
	}
}

func (c *InviteController) accept(req services.AcceptInviteRequest) {
	if req.Token == "" || req.Password == "" {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "缺少token或password", nil)
		return
	}
	inviteService := c.Container.GetService("invite").(services.InterfaceInviteService)
	result, err := inviteService.Accept(req)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, result)
}

// parsePagination 解析分页查询参数
func parsePagination(ctx *gin.Context) *models.PaginationQuery {
	pagination := &models.PaginationQuery{PageNum: 1, PageSize: 10}
	if err := ctx.ShouldBindQuery(pagination); err != nil || pagination.PageNum < 1 {
		pagination.PageNum = 1
	}
	if pagination.PageSize < 1 || pagination.PageSize > 100 {
		pagination.PageSize = 10
	}
	return pagination
}
