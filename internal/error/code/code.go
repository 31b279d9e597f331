package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusGone - 410: 资源已失效.
	StatusGone = 410
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 认证授权相关错误码 (101xxx).
const (
	// ErrUnauthenticated - 401: 未认证.
	ErrUnauthenticated int = iota + 101000
	// ErrForbidden - 403: 角色权限不足.
	ErrForbidden
	// ErrScopeViolation - 403: 越权访问，对外形态与ErrForbidden一致.
	ErrScopeViolation
	// ErrEditModeRequired - 403: 超级管理员写操作必须显式声明编辑模式.
	ErrEditModeRequired
	// ErrFeatureDisabled - 403: 功能已被租户关闭.
	ErrFeatureDisabled
	// ErrPasswordIncorrect - 401: 邮箱或密码错误.
	ErrPasswordIncorrect
)

// 邀请相关错误码 (102xxx).
const (
	// ErrInviteNotFound - 404: 邀请不存在.
	ErrInviteNotFound int = iota + 102000
	// ErrInvalidReference - 400: 引用的楼栋/户号/小区无法解析.
	ErrInvalidReference
	// ErrInvalidInvite - 400: 邀请不可接受.
	ErrInvalidInvite
	// ErrInviteExpired - 410: 邀请已过期.
	ErrInviteExpired
	// ErrInviteAlreadyAccepted - 400: 邀请已被接受.
	ErrInviteAlreadyAccepted
	// ErrInviteEmailSendFailed - 500: 邀请邮件发送失败.
	ErrInviteEmailSendFailed
	// ErrEmailAlreadyExist - 400: 邮箱已被注册.
	ErrEmailAlreadyExist
)

// 车辆与QR相关错误码 (103xxx).
const (
	// ErrNoVehicle - 400: 账户名下没有车辆.
	ErrNoVehicle int = iota + 103000
	// ErrVehicleAlreadyExist - 400: 账户名下已有车辆.
	ErrVehicleAlreadyExist
	// ErrQRNotFound - 404: QR记录不存在.
	ErrQRNotFound
	// ErrQRQuotaExceeded - 400: QR数量已达上限.
	ErrQRQuotaExceeded
)

// 扫码相关错误码 (104xxx).
const (
	// ErrScanLocationRequired - 400: 值守扫码必须提供位置说明.
	ErrScanLocationRequired int = iota + 104000
)

// 账户相关错误码 (105xxx).
const (
	// ErrProfileNotFound - 404: 账户不存在.
	ErrProfileNotFound int = iota + 105000
	// ErrNotificationNotFound - 404: 通知不存在.
	ErrNotificationNotFound
	// ErrSettingsNotFound - 404: 小区配置不存在.
	ErrSettingsNotFound
)

// 数据库相关错误码 (106xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 106000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
