// Package server 路由集成测试
//
// 指标使用默认 Prometheus 注册表，重复注册会 panic，
// 因此整套路由测试共用同一个 Handler 实例。
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cocktail-hub/internal/apiserver/auth"
	"cocktail-hub/internal/shared/cache"
	"cocktail-hub/internal/shared/model"
	"cocktail-hub/internal/shared/storage/memstore"
)

func TestRouter(t *testing.T) {
	store := memstore.NewStore()
	sessions := cache.NewMemoryCache()
	cfg := auth.Config{JWTSecret: "test-secret", TokenTTL: time.Hour}

	h := NewHandler(store, sessions, nil, cfg)
	router := h.Router()

	// 种子数据：一个已发布、一个未发布
	for _, c := range []*model.Cocktail{
		{ID: "ct-pub", UserID: "u-1", Name: "Mojito", Recipe: "Shake", IsPublished: true},
		{ID: "ct-draft", UserID: "u-1", Name: "Margarita", Recipe: "Stir", IsPublished: false},
	} {
		if err := store.CreateCocktail(context.Background(), c); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "cocktailhub_http_requests") {
			t.Error("expected cocktailhub metrics in exposition")
		}
	})

	t.Run("openapi spec", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spec", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "openapi:") {
			t.Error("expected OpenAPI document body")
		}
	})

	t.Run("anonymous list is filtered through full middleware chain", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cocktails", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var cocktails []*model.Cocktail
		if err := json.Unmarshal(rec.Body.Bytes(), &cocktails); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(cocktails) != 1 || cocktails[0].ID != "ct-pub" {
			t.Errorf("anonymous should see published only, got %v", cocktails)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/cocktails", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for preflight, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected CORS headers on preflight response")
		}
	})

	t.Run("protected route rejects anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cocktails/ct-pub/rate", strings.NewReader(`{"rating":3}`)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("login unknown user", func(t *testing.T) {
		body := strings.NewReader(`{"username":"alice","password":"secret123"}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for unknown user, got %d", rec.Code)
		}
	})

	t.Run("normalizePath", func(t *testing.T) {
		tests := []struct {
			in, want string
		}{
			{"/api/v1/cocktails", "/api/v1/cocktails"},
			{"/api/v1/cocktails/add", "/api/v1/cocktails/add"},
			{"/api/v1/cocktails/ct-123", "/api/v1/cocktails/{id}"},
			{"/api/v1/cocktails/ct-123/rate", "/api/v1/cocktails/{id}/rate"},
			{"/api/v1/cocktails/ct-123/togglePublished", "/api/v1/cocktails/{id}/togglePublished"},
			{"/images/abc.png", "/images/{key}"},
			{"/health", "/health"},
		}
		for _, tt := range tests {
			if got := normalizePath(tt.in); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})
}
