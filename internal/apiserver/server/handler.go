package server

import (
	"net/http"

	"cocktail-hub/api"
	"cocktail-hub/internal/apiserver/auth"
	"cocktail-hub/internal/apiserver/cocktail"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/v1/auth/register - 注册（multipart，可带头像）
//   - POST /api/v1/auth/login    - 登录
//   - POST /api/v1/auth/logout   - 登出（吊销会话）
//   - GET  /api/v1/auth/me       - 当前用户信息
//
// 鸡尾酒 (Cocktail):
//   - GET    /api/v1/cocktails                      - 列表（按身份过滤可见性）
//   - GET    /api/v1/cocktails/{id}                 - 详情
//   - POST   /api/v1/cocktails/add                  - 创建（需认证）
//   - POST   /api/v1/cocktails/{id}/rate            - 评分（需认证）
//   - DELETE /api/v1/cocktails/{id}                 - 删除（需管理员）
//   - PATCH  /api/v1/cocktails/{id}/togglePublished - 发布切换（需管理员）
//
// 静态资源:
//   - GET /images/{key} - 图片对象
//   - GET /spec         - OpenAPI 文档
//
// WebSocket:
//   - GET /ws/cocktails - 鸡尾酒变更实时推送
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// OpenAPI 文档
	mux.HandleFunc("GET /spec", h.Spec)

	// Auth 接口
	authHandler := auth.NewHandler(h.store, h.sessions, h.images, h.authConfig)
	authHandler.RegisterRoutes(mux)

	// Cocktail 接口（变更事件推送到动态网关）
	cocktailHandler := cocktail.NewHandler(h.store, h.images, h.feedGateway)
	cocktailHandler.RegisterRoutes(mux)

	// 应用指标中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authConfig, h.sessions)(apiHandler)

	// 应用 CORS 中间件
	corsHandler := corsMiddleware(authedHandler)

	// 创建顶层路由，WebSocket 绕过 metrics 中间件（避免 http.Hijacker 问题）
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /ws/cocktails", h.feedGateway.HandleWebSocket)
	topMux.Handle("/", corsHandler)

	return topMux
}

// Spec 返回 OpenAPI 文档
//
// 路由: GET /spec
func (h *Handler) Spec(w http.ResponseWriter, r *http.Request) {
	data, err := api.OpenAPIFS.ReadFile("openapi/cocktail-hub.yaml")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "spec unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
