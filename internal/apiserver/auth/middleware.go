package auth

import (
	"log"
	"net/http"
	"strings"

	"cocktail-hub/internal/shared/cache"
	"cocktail-hub/internal/shared/model"
)

// Middleware 创建认证中间件
//
// 身份解析是可选的：无 Authorization 头的请求以匿名身份放行，
// 由各 handler 通过 GetAuthUser 自行决定是否要求身份（见 RequireAuth/AdminOnly）。
// 携带了 Authorization 头但令牌无效或会话已吊销的请求直接拒绝，
// 避免"带着坏令牌却被当成匿名"的歧义。
func Middleware(cfg Config, sessions cache.SessionCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				// 匿名请求
				next.ServeHTTP(w, r)
				return
			}

			token := authHeader
			if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}

			claims, err := ParseToken(cfg, token)
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			// 会话吊销检查（登出后令牌即失效）
			session, err := sessions.GetSession(r.Context(), claims.ID)
			if err != nil {
				log.Printf("[auth] session lookup error: %v", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			if session == nil || session.UserID != claims.Subject {
				http.Error(w, `{"error":"session expired or revoked"}`, http.StatusUnauthorized)
				return
			}

			user := &AuthUser{
				ID:        claims.Subject,
				Username:  claims.Username,
				Role:      model.UserRole(claims.Role),
				SessionID: claims.ID,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
		})
	}
}

// RequireAuth 要求已认证身份的路由包装器
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetAuthUser(r.Context()) == nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// AdminOnly 管理员专属路由包装器
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin() {
			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
