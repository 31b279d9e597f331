package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "无效的认证令牌",
	ErrTooManyRequests: "请求频率过高，请稍后再试",

	// 认证授权相关错误码
	ErrUnauthenticated:   "未认证，请先登录",
	ErrForbidden:         "权限不足",
	ErrScopeViolation:    "权限不足", // 与ErrForbidden保持一致，不泄露范围外资源的存在
	ErrEditModeRequired:  "超级管理员写操作必须携带编辑模式标记",
	ErrFeatureDisabled:   "该功能已被管理员关闭",
	ErrPasswordIncorrect: "邮箱或密码错误",

	// 邀请相关错误码
	ErrInviteNotFound:        "邀请不存在",
	ErrInvalidReference:      "引用的楼栋或户号不存在",
	ErrInvalidInvite:         "邀请不可接受",
	ErrInviteExpired:         "邀请已过期",
	ErrInviteAlreadyAccepted: "邀请已被接受",
	ErrInviteEmailSendFailed: "邀请邮件发送失败",
	ErrEmailAlreadyExist:     "邮箱已被注册",

	// 车辆与QR相关错误码
	ErrNoVehicle:           "账户名下没有车辆",
	ErrVehicleAlreadyExist: "账户名下已有车辆",
	ErrQRNotFound:          "QR记录不存在",
	ErrQRQuotaExceeded:     "该车辆的QR数量已达上限",

	// 扫码相关错误码
	ErrScanLocationRequired: "值守扫码必须提供位置说明",

	// 账户相关错误码
	ErrProfileNotFound:      "账户不存在",
	ErrNotificationNotFound: "通知不存在",
	ErrSettingsNotFound:     "小区配置不存在",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	// 认证授权相关错误码
	ErrUnauthenticated:   StatusUnauthorized,
	ErrForbidden:         StatusForbidden,
	ErrScopeViolation:    StatusForbidden,
	ErrEditModeRequired:  StatusForbidden,
	ErrFeatureDisabled:   StatusForbidden,
	ErrPasswordIncorrect: StatusUnauthorized,

	// 邀请相关错误码
	ErrInviteNotFound:        StatusNotFound,
	ErrInvalidReference:      StatusBadRequest,
	ErrInvalidInvite:         StatusBadRequest,
	ErrInviteExpired:         StatusGone,
	ErrInviteAlreadyAccepted: StatusBadRequest,
	ErrInviteEmailSendFailed: StatusInternalServerError,
	ErrEmailAlreadyExist:     StatusBadRequest,

	// 车辆与QR相关错误码
	ErrNoVehicle:           StatusBadRequest,
	ErrVehicleAlreadyExist: StatusBadRequest,
	ErrQRNotFound:          StatusNotFound,
	ErrQRQuotaExceeded:     StatusBadRequest,

	// 扫码相关错误码
	ErrScanLocationRequired: StatusBadRequest,

	// 账户相关错误码
	ErrProfileNotFound:      StatusNotFound,
	ErrNotificationNotFound: StatusNotFound,
	ErrSettingsNotFound:     StatusNotFound,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
