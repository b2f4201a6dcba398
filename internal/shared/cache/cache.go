// Package cache 定义会话缓存抽象接口
//
// 登录时写入令牌会话，登出时吊销；认证中间件据此拒绝已吊销的令牌。
// 生产实现在 storage/redis 子包，测试与无 Redis 的本地开发使用 MemoryCache。
package cache

import (
	"context"
	"sync"
	"time"
)

// Redis key 前缀与 TTL
const (
	KeyTokenSession = "auth:session:" // + session ID
)

// Session 令牌会话
type Session struct {
	ID        string    `json:"id"` // JWT jti
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionCache 令牌会话缓存接口
type SessionCache interface {
	PutSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	RevokeSession(ctx context.Context, id string) error
}

// ============================================================================
// MemoryCache - 进程内实现（测试与无 Redis 的本地开发）
// ============================================================================

// MemoryCache 进程内 SessionCache
type MemoryCache struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryCache 创建 MemoryCache 实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{sessions: make(map[string]*Session)}
}

func (c *MemoryCache) PutSession(_ context.Context, session *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *session
	c.sessions[session.ID] = &cp
	return nil
}

func (c *MemoryCache) GetSession(_ context.Context, id string) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (c *MemoryCache) RevokeSession(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

var _ SessionCache = (*MemoryCache)(nil)
