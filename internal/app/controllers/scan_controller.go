package controllers

import (
	"github.com/gin-gonic/gin"

	"parkqr-http-service/internal/app/middleware"
	"parkqr-http-service/internal/domain/services"
	"parkqr-http-service/internal/domain/services/container"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/error/response"
)

// InterfaceScanController 定义扫码控制器接口
type InterfaceScanController interface {
	ScanAttended()
	ScanPublic()
}

// ScanController 处理扫码解析请求
type ScanController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewScanController 创建一个新的扫码控制器
func NewScanController(ctx *gin.Context, container *container.ServiceContainer) *ScanController {
	return &ScanController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleScanFunc 返回一个处理扫码请求的Gin处理函数
func HandleScanFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewScanController(ctx, container)

		switch method {
		case "scanAttended":
			controller.ScanAttended()
		case "scanPublic":
			controller.ScanPublic()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. ScanAttended 值守扫码
// @Summary      值守扫码
// @Description  已认证调用者对扫描到的码进行分类，需提供位置说明；返回判定结果、车牌与业主联系方式
// @Tags         Scan
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.ScanRequest true "扫码内容与位置"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /scan [post]
func (c *ScanController) ScanAttended() {
	caller := middleware.GetCaller(c.Ctx)
	if caller == nil {
		response.FailErr(c.Ctx, code.New(code.ErrUnauthenticated))
		return
	}

	var req services.ScanRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	scanService := c.Container.GetService("scan").(services.InterfaceScanService)
	resolution, err := scanService.ResolveAttended(caller, req)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, resolution)
}

// 2. ScanPublic 无人值守扫码
// @Summary      无人值守扫码
// @Description  无需认证的扫码入口，仅接受码与尽力提供的位置
// @Tags         Scan
// @Accept       json
// @Produce      json
// @Param        request body services.ScanRequest true "扫码内容"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /scan/public [post]
func (c *ScanController) ScanPublic() {
	var req services.ScanRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	scanService := c.Container.GetService("scan").(services.InterfaceScanService)
	resolution, err := scanService.ResolvePublic(req)
	if err != nil {
		response.FailErr(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, resolution)
}
