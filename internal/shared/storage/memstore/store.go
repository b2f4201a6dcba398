// Package memstore 实现内存版 PersistentStore
//
// 用于 handler 测试和 memory driver（无 MongoDB 的本地开发）。
// 所有操作在互斥锁内完成，评分写入与平均分重算因此是原子的，
// 与 mongostore 的单文档管道更新语义一致。
package memstore

import (
	"context"
	"sync"

	"cocktail-hub/internal/shared/model"
	"cocktail-hub/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu        sync.RWMutex
	users     map[string]*model.User     // by ID
	cocktails map[string]*model.Cocktail // by ID
	order     []string                   // cocktail 插入顺序（自然顺序）
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		users:     make(map[string]*model.User),
		cocktails: make(map[string]*model.Cocktail),
	}
}

// Close 实现 PersistentStore
func (s *Store) Close() error {
	return nil
}

// Reset 清空所有数据（fixtures 重新播种用）
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*model.User)
	s.cocktails = make(map[string]*model.Cocktail)
	s.order = nil
	return nil
}

// 确保 Store 实现了 PersistentStore 接口
var _ storage.PersistentStore = (*Store)(nil)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return storage.ErrDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers(_ context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	return users, nil
}

// ============================================================================
// CocktailStore
// ============================================================================

func (s *Store) CreateCocktail(_ context.Context, cocktail *model.Cocktail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cocktails[cocktail.ID]; ok {
		return storage.ErrDuplicate
	}
	s.cocktails[cocktail.ID] = cloneCocktail(cocktail)
	s.order = append(s.order, cocktail.ID)
	return nil
}

func (s *Store) GetCocktail(_ context.Context, id string) (*model.Cocktail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cocktails[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneCocktail(c), nil
}

func (s *Store) ListCocktails(_ context.Context, filter storage.CocktailFilter) ([]*model.Cocktail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*model.Cocktail{}
	for _, id := range s.order {
		c, ok := s.cocktails[id]
		if !ok {
			continue
		}
		if filter.OwnerID != "" && c.UserID != filter.OwnerID {
			continue
		}
		if filter.PublishedOnly && !c.IsPublished {
			continue
		}
		results = append(results, cloneCocktail(c))
	}
	return results, nil
}

func (s *Store) RateCocktail(_ context.Context, id, userID string, value int) (*model.Cocktail, error) {
	if err := model.ValidateRating(value); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cocktails[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if _, err := c.ApplyRating(userID, value); err != nil {
		return nil, err
	}
	return cloneCocktail(c), nil
}

func (s *Store) TogglePublished(_ context.Context, id string) (*model.Cocktail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cocktails[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c.IsPublished = !c.IsPublished
	return cloneCocktail(c), nil
}

func (s *Store) DeleteCocktail(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cocktails[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.cocktails, id)
	return nil
}

// cloneCocktail 深拷贝，避免调用方拿到内部切片
func cloneCocktail(c *model.Cocktail) *model.Cocktail {
	cp := *c
	cp.Ingredients = append([]model.Ingredient(nil), c.Ingredients...)
	cp.Ratings = append([]model.Rating(nil), c.Ratings...)
	return &cp
}
