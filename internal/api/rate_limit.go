package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter 按客户端 IP 维护独立的令牌桶
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func (cl *clientLimiter) get(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	// 粗暴的上限,避免伪造源地址撑爆映射
	if len(cl.limiters) > 10000 {
		cl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, ok := cl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(cl.rps, cl.burst)
		cl.limiters[key] = limiter
	}
	return limiter
}

// RateLimitMiddleware 按客户端 IP 限流
// 登录接口用它压制口令爆破,预测接口用它保护模型配额
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	cl := &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}

	return func(c *gin.Context) {
		if !cl.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Code:    429,
				Message: "too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
