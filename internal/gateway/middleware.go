package gateway

import (
	"net/http"
	"time"

	"github.com/MMTunning/MMTunning/internal/common/auth"
	"github.com/MMTunning/MMTunning/internal/common/config"
	"github.com/MMTunning/MMTunning/internal/common/logger"
	"github.com/MMTunning/MMTunning/internal/common/middleware"
	"github.com/MMTunning/MMTunning/internal/common/server"
)

// recoverMiddleware panic 兜底，返回 500。
func recoverMiddleware(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// accessLogMiddleware 访问日志：方法、路径、状态、耗时。
func accessLogMiddleware(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Infof("http request")
	})
}

// rateLimitMiddleware 令牌桶全局限流。
func rateLimitMiddleware(limiter middleware.RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(r.Context()) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware 校验 Bearer token 并把身份放进请求上下文。
// publicPaths 里的路径（前缀匹配）放行；cfg.Enabled 为 false 时整体放行。
func authMiddleware(cfg config.AuthConfig, publicPaths []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Enabled || isPublicPath(publicPaths, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := server.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing bearer token"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}

		ctx := server.ContextWithAuth(r.Context(), server.AuthInfo{
			Subject: claims.Subject,
			Roles:   claims.Roles,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isPublicPath(public []string, path string) bool {
	for _, p := range public {
		if p != "" && len(path) >= len(p) && path[:len(p)] == p {
			return true
		}
	}
	return false
}

// requireRole 在单个 handler 上追加角色检查。鉴权关闭时直接放行。
func requireRole(cfg config.AuthConfig, roles []string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.Enabled || len(roles) == 0 {
			h(w, r)
			return
		}
		ai, ok := server.AuthFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthenticated"})
			return
		}
		if !server.HasAnyRole(ai.Roles, roles) {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "insufficient role"})
			return
		}
		h(w, r)
	}
}
