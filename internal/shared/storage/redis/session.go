// Package redis 令牌会话相关操作
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cocktail-hub/internal/shared/cache"
)

// PutSession 写入令牌会话，TTL 与令牌有效期对齐
func (s *Store) PutSession(ctx context.Context, session *cache.Session) error {
	key := cache.KeyTokenSession + session.ID
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}

	data := map[string]interface{}{
		"id":         session.ID,
		"user_id":    session.UserID,
		"issued_at":  session.IssuedAt.Format(time.RFC3339),
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

// GetSession 获取令牌会话，不存在（已吊销或过期）时返回 (nil, nil)
func (s *Store) GetSession(ctx context.Context, id string) (*cache.Session, error) {
	key := cache.KeyTokenSession + id

	result, err := s.client.HGetAll(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	session := &cache.Session{
		ID:     result["id"],
		UserID: result["user_id"],
	}
	if t, err := time.Parse(time.RFC3339, result["issued_at"]); err == nil {
		session.IssuedAt = t
	}
	if t, err := time.Parse(time.RFC3339, result["expires_at"]); err == nil {
		session.ExpiresAt = t
	}
	return session, nil
}

// RevokeSession 吊销令牌会话（登出）
func (s *Store) RevokeSession(ctx context.Context, id string) error {
	key := cache.KeyTokenSession + id
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// 确保 Store 实现了 SessionCache 接口
var _ cache.SessionCache = (*Store)(nil)
