package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"RuralCare/pkg/cache"
	"RuralCare/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 决定一段时间内重复请求的拒绝窗口
	Store      cache.Cache

	// Scope 没有请求头时并入键的资源状态，例如警报当前绑定的救护车。
	// 状态变化后同样的请求体不再视为重复
	Scope func(c *gin.Context) string
}

// IdempotencyMiddleware 拒绝窗口内的重复写请求。
// 没有请求头时以请求体哈希作为键；键按用户和路由隔离。
// 处理失败（4xx/5xx）时删除键，允许客户端修正后重试
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return func(c *gin.Context) {
		if cfg.Store == nil {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			b, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(b))
			h := sha256.Sum256(b)
			key = hex.EncodeToString(h[:])
			if cfg.Scope != nil {
				key += ":" + cfg.Scope(c)
			}
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key = "idem:" + c.GetString(UserIDKey) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		ok, err := cfg.Store.SetNX(c.Request.Context(), key, route, cfg.TTL)
		if err != nil {
			logger.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": "Duplicate request"})
			return
		}
		c.Next()
		if c.Writer.Status() >= http.StatusBadRequest {
			_ = cfg.Store.Delete(c.Request.Context(), key)
		}
	}
}
