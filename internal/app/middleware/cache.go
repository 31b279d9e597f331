package middleware

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Redis响应缓存：GET接口的完整JSON响应按请求键缓存，
// Redis不可用时退化为直通
var cacheClient *redis.Client

const cacheKeyPrefix = "resp_cache:"

// InitCacheMiddleware 初始化响应缓存
func InitCacheMiddleware(client *redis.Client) {
	cacheClient = client
}

// cacheKey 由路径与排序后的查询参数生成缓存键
func cacheKey(c *gin.Context) string {
	path := c.Request.URL.Path
	queryParams := c.Request.URL.Query()
	var queryKeys []string
	for key := range queryParams {
		queryKeys = append(queryKeys, key)
	}
	sort.Strings(queryKeys)

	var queryString string
	for _, key := range queryKeys {
		values := queryParams[key]
		sort.Strings(values)
		for _, value := range values {
			queryString += key + "=" + value + "&"
		}
	}

	hasher := md5.New()
	hasher.Write([]byte(path + "?" + queryString))
	return cacheKeyPrefix + hex.EncodeToString(hasher.Sum(nil))
}

// Cache 创建响应缓存中间件，只缓存GET的200响应
func Cache(expiration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cacheClient == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c)
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		cached, err := cacheClient.Get(ctx, key).Bytes()
		cancel()
		if err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}

		writer := &cacheResponseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			cacheClient.Set(ctx, key, writer.body.Bytes(), expiration)
			cancel()
		}
	}
}

// 捕获响应内容的写入器
type cacheResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cacheResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cacheResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
