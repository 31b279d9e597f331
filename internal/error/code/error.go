package code

// Error 携带业务错误码的错误，服务层返回，由响应层映射为HTTP响应
type Error struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Error) Error() string {
	return e.Message
}

// New 按错误码创建业务错误，使用错误码的默认消息
func New(code int) *Error {
	return &Error{Code: code, Message: GetMessage(code)}
}

// NewWithMessage 按错误码创建业务错误并覆盖消息
func NewWithMessage(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Is 判断错误是否携带指定业务错误码
func Is(err error, code int) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
