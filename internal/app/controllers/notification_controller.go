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

// InterfaceNotificationController 定义通知控制器接口
type InterfaceNotificationController interface {
	ListNotifications()
	MarkRead()
}

// NotificationController 处理通知相关的请求
type NotificationController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewNotificationController 创建一个新的通知控制器
func NewNotificationController(ctx *gin.Context, container *container.ServiceContainer) *NotificationController {
	return &NotificationController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleNotificationFunc 返回一个处理通知请求的Gin处理函数
func HandleNotificationFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewNotificationController(ctx, container)

		switch method {
		case "listNotifications":
			controller.ListNotifications()
		case "markRead":
			controller.MarkRead()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. ListNotifications 获取当前账户的通知列表
// @Summary      通知列表
// @Description  分页获取当前账户的通知，新者在前
// @Tags         Notification
// @Produce      json
// @Security     BearerAuth
// @Param        pageNum query int false "页码，默认为1"
// @Param        pageSize query int false "每页条数，默认为10"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications [get]
func (c *NotificationController) ListNotifications() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	pagination := parsePagination(c.Ctx)
	notificationService := c.Container.GetService("notification").(services.InterfaceNotificationService)
	notifications, total, err := notificationService.ListByProfile(caller.ProfileID, pagination.PageNum, pagination.PageSize)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"total":    total,
		"pageNum":  pagination.PageNum,
		"pageSize": pagination.PageSize,
		"data":     notifications,
	})
}

// 2. MarkRead 标记通知为已读
// @Summary      标记通知已读
// @Description  只允许收件人本人标记
// @Tags         Notification
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "通知ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [put]
func (c *NotificationController) MarkRead() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	id, err := strconv.Atoi(c.Ctx.Param("id"))
	if err != nil || id <= 0 {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的通知ID", nil)
		return
	}

	notificationService := c.Container.GetService("notification").(services.InterfaceNotificationService)
	if err := notificationService.MarkRead(caller.ProfileID, uint(id)); err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}
