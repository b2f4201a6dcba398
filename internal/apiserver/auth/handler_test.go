package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cocktail-hub/internal/shared/cache"
	"cocktail-hub/internal/shared/model"
	"cocktail-hub/internal/shared/storage/memstore"
)

// testEnv 组装被测 handler 与其依赖
func testEnv(t *testing.T) (*Handler, *memstore.Store, *cache.MemoryCache) {
	t.Helper()
	store := memstore.NewStore()
	sessions := cache.NewMemoryCache()
	h := NewHandler(store, sessions, nil, testConfig())
	return h, store, sessions
}

// registerForm 构造注册用 multipart 请求体
func registerForm(t *testing.T, username, password, displayName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	mw.WriteField("username", username)
	mw.WriteField("password", password)
	mw.WriteField("displayName", displayName)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func TestRegister(t *testing.T) {
	h, store, _ := testEnv(t)

	body, contentType := registerForm(t, "user@gmail.com", "123", "User")
	r := httptest.NewRequest("POST", "/api/v1/auth/register", body)
	r.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Register(rec, r)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		User  *model.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Token == "" {
		t.Error("token is empty")
	}
	if resp.User.Role != model.UserRoleUser {
		t.Errorf("Role = %v, want user", resp.User.Role)
	}

	// 密码已哈希存储
	stored, err := store.GetUserByUsername(context.Background(), "user@gmail.com")
	if err != nil || stored == nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if stored.PasswordHash == "123" {
		t.Error("password stored in plaintext")
	}
	if !CheckPassword("123", stored.PasswordHash) {
		t.Error("stored hash does not match password")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	h, _, _ := testEnv(t)

	for i, wantStatus := range []int{http.StatusCreated, http.StatusConflict} {
		body, contentType := registerForm(t, "user@gmail.com", "123", "User")
		r := httptest.NewRequest("POST", "/api/v1/auth/register", body)
		r.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.Register(rec, r)

		if rec.Code != wantStatus {
			t.Errorf("attempt %d: status = %d, want %d", i+1, rec.Code, wantStatus)
		}
	}
}

func TestRegister_MissingFields(t *testing.T) {
	h, _, _ := testEnv(t)

	body, contentType := registerForm(t, "user@gmail.com", "", "User")
	r := httptest.NewRequest("POST", "/api/v1/auth/register", body)
	r.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Register(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func seedUser(t *testing.T, store *memstore.Store, username, password string, role model.UserRole) *model.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	now := time.Now()
	user := &model.User{
		ID:           generateID("usr"),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		DisplayName:  "Test",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestLogin(t *testing.T) {
	h, store, sessions := testEnv(t)
	seedUser(t, store, "user@gmail.com", "123", model.UserRoleUser)

	body := bytes.NewBufferString(`{"username":"user@gmail.com","password":"123"}`)
	r := httptest.NewRequest("POST", "/api/v1/auth/login", body)
	rec := httptest.NewRecorder()
	h.Login(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	// 签发的令牌对应已登记会话
	claims, err := ParseToken(testConfig(), resp.Token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	session, err := sessions.GetSession(context.Background(), claims.ID)
	if err != nil || session == nil {
		t.Fatalf("session not registered: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h, store, _ := testEnv(t)
	seedUser(t, store, "user@gmail.com", "123", model.UserRoleUser)

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"username":"user@gmail.com","password":"456"}`},
		{"unknown user", `{"username":"nobody@gmail.com","password":"123"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, r)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	h, store, sessions := testEnv(t)
	user := seedUser(t, store, "user@gmail.com", "123", model.UserRoleUser)

	token, err := h.issueSession(context.Background(), user)
	if err != nil {
		t.Fatalf("issueSession failed: %v", err)
	}
	claims, err := ParseToken(testConfig(), token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	r := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	r = r.WithContext(WithAuthUser(r.Context(), &AuthUser{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: claims.ID,
	}))
	rec := httptest.NewRecorder()
	h.Logout(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	session, err := sessions.GetSession(context.Background(), claims.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session != nil {
		t.Error("session still live after logout")
	}
}

func TestEnsureAdminUser(t *testing.T) {
	store := memstore.NewStore()

	if err := EnsureAdminUser(store, "admin@gmail.com", "456"); err != nil {
		t.Fatalf("EnsureAdminUser failed: %v", err)
	}

	admin, err := store.GetUserByUsername(context.Background(), "admin@gmail.com")
	if err != nil || admin == nil {
		t.Fatalf("admin not created: %v", err)
	}
	if admin.Role != model.UserRoleAdmin {
		t.Errorf("Role = %v, want admin", admin.Role)
	}

	// 幂等：二次调用不报错、不重复创建
	if err := EnsureAdminUser(store, "admin@gmail.com", "456"); err != nil {
		t.Fatalf("second EnsureAdminUser failed: %v", err)
	}

	// 未配置时为空操作
	if err := EnsureAdminUser(store, "", ""); err != nil {
		t.Fatalf("EnsureAdminUser with empty config failed: %v", err)
	}
}
