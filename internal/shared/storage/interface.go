// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（生产）、memstore/（测试与 memory driver）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"
	"errors"

	"cocktail-hub/internal/shared/model"
)

// 领域错误
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// CocktailFilter 鸡尾酒列表过滤条件
//
// 由可见性规则构造（见 cocktail 包 VisibilityFilter）：
//   - OwnerID 非空：只返回该用户拥有的鸡尾酒
//   - PublishedOnly：只返回 is_published == true 的鸡尾酒
//   - 两者都为零值：返回全部（admin）
type CocktailFilter struct {
	OwnerID       string
	PublishedOnly bool
}

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// CocktailStore 鸡尾酒存储接口
type CocktailStore interface {
	CreateCocktail(ctx context.Context, cocktail *model.Cocktail) error
	GetCocktail(ctx context.Context, id string) (*model.Cocktail, error)
	ListCocktails(ctx context.Context, filter CocktailFilter) ([]*model.Cocktail, error)

	// RateCocktail 以单文档原子更新写入评分并重算 average_rating。
	// 已有评分原位替换，否则追加；返回更新后的文档。
	// 鸡尾酒不存在时返回 ErrNotFound。
	RateCocktail(ctx context.Context, id, userID string, value int) (*model.Cocktail, error)

	// TogglePublished 翻转发布状态，返回更新后的文档。
	TogglePublished(ctx context.Context, id string) (*model.Cocktail, error)

	DeleteCocktail(ctx context.Context, id string) error
}

// PersistentStore 持久化存储聚合接口
type PersistentStore interface {
	UserStore
	CocktailStore
	Close() error
}
