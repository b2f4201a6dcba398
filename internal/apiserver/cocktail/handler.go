// Package cocktail 鸡尾酒领域 - HTTP 处理
//
// 实现列表（可见性过滤）、详情、创建、评分、删除与发布切换。
// 身份由 auth 中间件解析注入 context，各 handler 显式读取。
package cocktail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path"
	"time"

	"cocktail-hub/internal/apiserver/auth"
	"cocktail-hub/internal/shared/model"
	"cocktail-hub/internal/shared/storage"
)

// ImageStore 图片对象存储接口（未配置时为 nil，创建接口忽略上传文件）
type ImageStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// EventSink 鸡尾酒变更事件接收方（WebSocket 网关；为 nil 时不推送）
type EventSink interface {
	Publish(event Event)
}

// Event 鸡尾酒变更事件
type Event struct {
	Type     EventType       `json:"type"`
	ID       string          `json:"id"`
	Cocktail *model.Cocktail `json:"cocktail,omitempty"`
}

// EventType 事件类型
type EventType string

const (
	EventCreated        EventType = "created"
	EventRated          EventType = "rated"
	EventPublishToggled EventType = "publish_toggled"
	EventDeleted        EventType = "deleted"
)

// Handler 鸡尾酒领域 HTTP 处理器
type Handler struct {
	store  storage.CocktailStore
	images ImageStore
	events EventSink
}

// NewHandler 创建鸡尾酒处理器
func NewHandler(store storage.CocktailStore, images ImageStore, events EventSink) *Handler {
	return &Handler{store: store, images: images, events: events}
}

// RegisterRoutes 注册鸡尾酒相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/cocktails", h.List)
	mux.HandleFunc("GET /api/v1/cocktails/{id}", h.Get)
	mux.HandleFunc("POST /api/v1/cocktails/add", auth.RequireAuth(h.Create))
	mux.HandleFunc("POST /api/v1/cocktails/{id}/rate", auth.RequireAuth(h.Rate))
	mux.HandleFunc("DELETE /api/v1/cocktails/{id}", auth.AdminOnly(h.Delete))
	mux.HandleFunc("PATCH /api/v1/cocktails/{id}/togglePublished", auth.AdminOnly(h.TogglePublished))
	mux.HandleFunc("GET /images/{key...}", h.Image)
}

// VisibilityFilter 根据请求者身份构造列表过滤条件
//
// 规则：
//   - 匿名：仅已发布
//   - 普通用户：仅本人的鸡尾酒（含未发布），不含他人未发布
//   - 管理员：全部
func VisibilityFilter(user *auth.AuthUser) storage.CocktailFilter {
	if user == nil {
		return storage.CocktailFilter{PublishedOnly: true}
	}
	if user.IsAdmin() {
		return storage.CocktailFilter{}
	}
	return storage.CocktailFilter{OwnerID: user.ID}
}

// List 按可见性返回鸡尾酒列表
//
// 路由: GET /api/v1/cocktails（认证可选）
//
// 空结果返回 {"message": ..., "cocktails": []}，否则返回原始数组。
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	cocktails, err := h.store.ListCocktails(r.Context(), VisibilityFilter(user))
	if err != nil {
		log.Printf("[cocktail] ListCocktails error: %v", err)
		writeError(w, http.StatusInternalServerError, "Error fetching cocktails")
		return
	}

	if len(cocktails) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":   "No cocktails found",
			"cocktails": []*model.Cocktail{},
		})
		return
	}

	writeJSON(w, http.StatusOK, cocktails)
}

// Get 获取鸡尾酒详情
//
// 路由: GET /api/v1/cocktails/{id}（无需认证）
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	c, err := h.store.GetCocktail(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Cocktail not found")
			return
		}
		log.Printf("[cocktail] GetCocktail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Error fetching this cocktail")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Create 创建鸡尾酒
//
// 路由: POST /api/v1/cocktails/add（需认证）
//
// multipart/form-data 字段：name, recipe, ingredients（JSON 编码数组）,
// image（可选文件）。归属者取自认证身份，is_published 强制为 false。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var ingredients []model.Ingredient
	if raw := r.FormValue("ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &ingredients); err != nil {
			writeError(w, http.StatusBadRequest, "ingredients must be a JSON array of {name, amount}")
			return
		}
	}

	now := time.Now()
	c := &model.Cocktail{
		ID:          generateID("ct"),
		UserID:      user.ID,
		Name:        r.FormValue("name"),
		Recipe:      r.FormValue("recipe"),
		Ingredients: ingredients,
		Ratings:     []model.Rating{},
		IsPublished: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 可选图片
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		if h.images != nil {
			key := "images/" + c.ID + path.Ext(header.Filename)
			if err := h.images.Upload(r.Context(), key, file, header.Size, header.Header.Get("Content-Type")); err != nil {
				log.Printf("[cocktail] image upload error: %v", err)
				writeError(w, http.StatusInternalServerError, "Error creating cocktail")
				return
			}
			c.ImageKey = key
		}
	}

	if err := h.store.CreateCocktail(r.Context(), c); err != nil {
		log.Printf("[cocktail] CreateCocktail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Error creating cocktail")
		return
	}

	h.publish(Event{Type: EventCreated, ID: c.ID, Cocktail: c})
	log.Printf("[cocktail] Cocktail created: %s by %s", c.ID, user.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Cocktail created successfully",
		"cocktail": c,
	})
}

// Rate 提交评分
//
// 路由: POST /api/v1/cocktails/{id}/rate（需认证）
//
// 请求体 {"rating": n}，n ∈ [1,5]。同一用户重复评分原位替换；
// 平均分在同一次存储更新中重算（见 storage.CocktailStore.RateCocktail）。
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	id := r.PathValue("id")

	var req struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.store.RateCocktail(r.Context(), id, user.ID, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRatingOutOfRange):
			writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "Cocktail not found")
		default:
			log.Printf("[cocktail] RateCocktail error: %v", err)
			writeError(w, http.StatusInternalServerError, "Error rating cocktail")
		}
		return
	}

	h.publish(Event{Type: EventRated, ID: updated.ID, Cocktail: updated})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Rating added successfully",
		"cocktail": updated,
	})
}

// TogglePublished 翻转发布状态
//
// 路由: PATCH /api/v1/cocktails/{id}/togglePublished（需管理员）
func (h *Handler) TogglePublished(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	updated, err := h.store.TogglePublished(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Cocktail not found")
			return
		}
		log.Printf("[cocktail] TogglePublished error: %v", err)
		writeError(w, http.StatusInternalServerError, "Error toggling cocktail publication")
		return
	}

	h.publish(Event{Type: EventPublishToggled, ID: updated.ID, Cocktail: updated})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Cocktail publish state updated",
		"cocktail": updated,
	})
}

// Delete 永久删除鸡尾酒
//
// 路由: DELETE /api/v1/cocktails/{id}（需管理员）
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// 删除前取出文档以便清理图片对象
	c, err := h.store.GetCocktail(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Cocktail not found")
			return
		}
		log.Printf("[cocktail] GetCocktail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Error deleting cocktail")
		return
	}

	if err := h.store.DeleteCocktail(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Cocktail not found")
			return
		}
		log.Printf("[cocktail] DeleteCocktail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Error deleting cocktail")
		return
	}

	// 图片清理失败不影响删除结果
	if h.images != nil && c.ImageKey != "" {
		if err := h.images.Delete(r.Context(), c.ImageKey); err != nil {
			log.Printf("[cocktail] image delete error for %s: %v", c.ImageKey, err)
		}
	}

	h.publish(Event{Type: EventDeleted, ID: id})
	log.Printf("[cocktail] Cocktail deleted: %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cocktail deleted successfully"})
}

// Image 流式返回存储的图片对象
//
// 路由: GET /images/{key...}（无需认证）
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, http.StatusNotFound, "image storage not configured")
		return
	}

	key := "images/" + r.PathValue("key")
	obj, contentType, err := h.images.Download(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer obj.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, obj)
}

// publish 推送变更事件（网关未配置时为空操作）
func (h *Handler) publish(event Event) {
	if h.events != nil {
		h.events.Publish(event)
	}
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
