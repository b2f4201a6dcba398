// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cocktail-hub/internal/apiserver/auth"
	"cocktail-hub/internal/apiserver/cocktail"
	"cocktail-hub/internal/apiserver/server"
	"cocktail-hub/internal/config"
	"cocktail-hub/internal/shared/cache"
	"cocktail-hub/internal/shared/objstore"
	"cocktail-hub/internal/shared/storage"
	"cocktail-hub/internal/shared/storage/memstore"
	"cocktail-hub/internal/shared/storage/mongostore"
	redisstore "cocktail-hub/internal/shared/storage/redis"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换配置文件）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// 初始化持久化存储（MongoDB，或本地开发用内存实现）
	store, err := newPersistentStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// 初始化会话缓存（Redis 未启用时使用进程内实现，登出语义不变）
	sessions, closeSessions, err := newSessionCache(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer closeSessions()

	// 初始化图片对象存储（可选）
	images, err := newImageStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	// 引导管理员账号
	if err := auth.EnsureAdminUser(store, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	authCfg := auth.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	}
	h := server.NewHandler(store, sessions, images, authCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// newPersistentStore 根据配置创建持久化存储
func newPersistentStore(cfg *config.Config) (storage.PersistentStore, error) {
	switch cfg.Database.Driver {
	case "memory":
		log.Println("Using in-memory store (no persistence)")
		return memstore.NewStore(), nil
	default:
		store, err := mongostore.NewStore(cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			return nil, err
		}
		log.Println("Connected to MongoDB")
		return store, nil
	}
}

// newSessionCache 根据配置创建会话缓存
func newSessionCache(cfg *config.Config) (cache.SessionCache, func(), error) {
	if !cfg.Redis.Enabled {
		log.Println("Redis disabled, using in-memory session cache")
		return cache.NewMemoryCache(), func() {}, nil
	}

	store, err := redisstore.NewStore(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Println("Connected to Redis")
	return store, func() { store.Close() }, nil
}

// newImageStore 根据配置创建图片对象存储（未启用时返回 nil）
func newImageStore(cfg *config.Config) (cocktail.ImageStore, error) {
	if !cfg.MinIO.Enabled {
		log.Println("MinIO disabled, image uploads will be ignored")
		return nil, nil
	}

	client, err := objstore.NewClient(cfg.MinIO)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Println("Connected to MinIO")
	return client, nil
}
