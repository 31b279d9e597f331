package controllers

import (
	"github.com/gin-gonic/gin"

	"parkqr-http-service/internal/app/middleware"
	"parkqr-http-service/internal/domain/services"
	"parkqr-http-service/internal/domain/services/container"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/error/response"
)

// InterfaceQRController 定义QR控制器接口
type InterfaceQRController interface {
	RequestQR()
	ExtraIssue()
	Approve()
}

// QRController 处理QR签发相关的请求
type QRController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewQRController 创建一个新的QR控制器
func NewQRController(ctx *gin.Context, container *container.ServiceContainer) *QRController {
	return &QRController{
		Ctx:       ctx,
		Container: container,
	}
}

// QRRequestBody 表示自助QR请求
type QRRequestBody struct {
	Type string `json:"type" binding:"required" example:"REISSUE"` // REISSUE 或 EXTRA_REQUEST
}

// ApprovalRequest 表示QR审批请求
type ApprovalRequest struct {
	QRID uint `json:"qr_id" binding:"required" example:"1"`
}

// HandleQRFunc 返回一个处理QR请求的Gin处理函数
func HandleQRFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewQRController(ctx, container)

		switch method {
		case "requestQR":
			controller.RequestQR()
		case "extraIssue":
			controller.ExtraIssue()
		case "approve":
			controller.Approve()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. RequestQR 自助QR请求
// @Summary      自助QR请求
// @Description  REISSUE 补发（停用全部旧码后签发一枚新激活码），EXTRA_REQUEST 追加一枚激活码；均向管理员广播qr_request通知
// @Tags         QR
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body QRRequestBody true "请求类型"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /qr/requests [post]
func (c *QRController) RequestQR() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}
	if err := c.requireQRToggle(caller); err != nil {
		response.FailErr(c.Ctx, err)
		return
	}

	var req QRRequestBody
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	qrService := c.Container.GetService("qr").(services.InterfaceQRService)
	qr, err := qrService.Request(caller, services.QRRequestType(req.Type))
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"qr":  qr,
		"url": qrService.DisplayURL(qr),
	})
}

// 2. ExtraIssue 追加签发
// @Summary      追加签发QR
// @Description  未达单车上限时为调用者的车辆追加一枚激活QR
// @Tags         QR
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /qrs/extra [post]
func (c *QRController) ExtraIssue() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}
	if err := c.requireQRToggle(caller); err != nil {
		response.FailErr(c.Ctx, err)
		return
	}

	qrService := c.Container.GetService("qr").(services.InterfaceQRService)
	qr, err := qrService.ExtraIssue(caller)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"qr":  qr,
		"url": qrService.DisplayURL(qr),
	})
}

// 3. Approve 审批QR
// @Summary      审批QR
// @Description  管理员将范围内住户的INACTIVE QR翻转为ACTIVE
// @Tags         QR
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ApprovalRequest true "审批参数"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /approvals [post]
func (c *QRController) Approve() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	var req ApprovalRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	qrService := c.Container.GetService("qr").(services.InterfaceQRService)
	qr, err := qrService.Approve(caller, req.QRID)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, qr)
}

// requireQRToggle 非管理角色受 parking.qrs 功能开关约束
func (c *QRController) requireQRToggle(caller *services.CallerContext) error {
	if caller.Role.IsAdmin() {
		return nil
	}
	menuService := c.Container.GetService("menu").(services.InterfaceMenuService)
	return menuService.RequireMenuToggle(caller, caller.Role.MenuGroup(), services.MenuKeyParkingQRs)
}
