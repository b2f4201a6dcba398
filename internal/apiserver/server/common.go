// Package server 路由配置与核心基础设施
//
// 本包是 HTTP API 的入口，负责：
//   - 组装各领域处理器（auth / cocktail）并注册路由
//   - 中间件链（指标 -> 认证 -> CORS）
//   - WebSocket 实时推送网关
//   - Prometheus 指标
//
// 文件组织：
//   - common.go: Handler 定义与通用工具函数
//   - handler.go: 路由配置
//   - feed.go: WebSocket 鸡尾酒动态网关
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"cocktail-hub/internal/apiserver/auth"
	"cocktail-hub/internal/apiserver/cocktail"
	"cocktail-hub/internal/shared/cache"
	"cocktail-hub/internal/shared/storage"
)

// Handler API 处理器
//
// 依赖接口说明（接口隔离原则）：
//   - store: 业务数据持久化（MongoDB 或内存实现）
//   - sessions: 令牌会话缓存（Redis 或内存实现，登出吊销依赖它）
//   - images: 图片对象存储（MinIO，可为 nil）
type Handler struct {
	store    storage.PersistentStore
	sessions cache.SessionCache
	images   cocktail.ImageStore

	authConfig auth.Config

	// 内部组件
	feedGateway *FeedGateway
	metrics     *Metrics
}

// NewHandler 创建 Handler 实例
//
// images 为 nil 时创建接口忽略上传文件，/images 路由返回 404。
func NewHandler(store storage.PersistentStore, sessions cache.SessionCache, images cocktail.ImageStore, authConfig auth.Config) *Handler {
	h := &Handler{
		store:      store,
		sessions:   sessions,
		images:     images,
		authConfig: authConfig,
	}
	h.metrics = NewMetrics("cocktailhub")
	h.feedGateway = NewFeedGateway(h.metrics)
	return h
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// Health 健康检查
//
// 路由: GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// 工具函数
// ============================================================================

// writeJSON 写入 JSON 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError 写入错误响应
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
