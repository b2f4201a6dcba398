package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"cocktail-hub/internal/shared/cache"
	"cocktail-hub/internal/shared/model"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AvatarStore 头像对象存储接口（未配置对象存储时为 nil，注册时忽略头像文件）
type AvatarStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store    UserStore
	sessions cache.SessionCache
	avatars  AvatarStore
	cfg      Config
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, sessions cache.SessionCache, avatars AvatarStore, cfg Config) *Handler {
	return &Handler{store: store, sessions: sessions, avatars: avatars, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", RequireAuth(h.Logout))
	mux.HandleFunc("GET /api/v1/auth/me", RequireAuth(h.Me))
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
//
// 路由: POST /api/v1/auth/register
//
// multipart/form-data 字段：username, password, displayName, avatar（可选文件）
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	displayName := strings.TrimSpace(r.FormValue("displayName"))

	if username == "" || password == "" || displayName == "" {
		writeError(w, http.StatusBadRequest, "username, password and displayName are required")
		return
	}

	// 检查用户名是否已注册
	existing, err := h.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		log.Printf("[auth.register] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "username already registered")
		return
	}

	hash, err := HashPassword(password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID("usr"),
		Username:     username,
		PasswordHash: hash,
		Role:         model.UserRoleUser,
		DisplayName:  displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 可选头像
	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		if h.avatars != nil {
			key := "avatars/" + user.ID + path.Ext(header.Filename)
			if err := h.avatars.Upload(r.Context(), key, file, header.Size, header.Header.Get("Content-Type")); err != nil {
				log.Printf("[auth.register] avatar upload error: %v", err)
				writeError(w, http.StatusInternalServerError, "failed to store avatar")
				return
			}
			user.AvatarKey = key
		}
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.issueSession(r.Context(), user)
	if err != nil {
		log.Printf("[auth.register] issueSession error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User registered: %s (%s)", user.Username, user.ID)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login 用户登录，签发新令牌（旧令牌保持有效直至过期或登出）
//
// 路由: POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		log.Printf("[auth.login] GetUserByUsername error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := h.issueSession(r.Context(), user)
	if err != nil {
		log.Printf("[auth.login] issueSession error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User logged in: %s", user.Username)
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// Logout 登出：吊销当前令牌会话
//
// 路由: POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := GetAuthUser(r.Context())

	if err := h.sessions.RevokeSession(r.Context(), user.SessionID); err != nil {
		log.Printf("[auth.logout] RevokeSession error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User logged out: %s", user.Username)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me 返回当前用户资料
//
// 路由: GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[auth.me] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// issueSession 签发令牌并登记会话
func (h *Handler) issueSession(ctx context.Context, user *model.User) (string, error) {
	token, sessionID, err := GenerateToken(h.cfg, user)
	if err != nil {
		return "", err
	}
	now := time.Now()
	err = h.sessions.PutSession(ctx, &cache.Session{
		ID:        sessionID,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(h.cfg.TokenTTL),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ============================================================================
// 启动引导
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 如果配置了 adminUsername 且数据库中不存在该用户，则自动创建
func EnsureAdminUser(store UserStore, adminUsername, adminPassword string) error {
	if adminUsername == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByUsername(ctx, adminUsername)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminUsername, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID("usr"),
		Username:     adminUsername,
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		DisplayName:  "Admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminUsername, user.ID)
	return nil
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
