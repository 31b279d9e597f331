package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// SecureToken 生成n字节的加密随机令牌，十六进制编码，
// 用于邀请令牌与QR码等能力令牌，不可枚举
func SecureToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("generate secure token failed")
	}
	return hex.EncodeToString(buf)
}
