package client

import (
	"context"
	"sync"
)

// Resource 异步状态容器
//
// 缓存最近一次成功响应，刷新期间旧数据仍然可读，
// 失败时保留旧数据并记录错误。供界面层按
// data / loading / error 三元组渲染。
type Resource[T any] struct {
	fetch func(ctx context.Context) (T, error)

	mu      sync.RWMutex
	data    T
	loaded  bool
	loading bool
	err     error
}

// NewResource 创建状态容器，fetch 为数据拉取函数
func NewResource[T any](fetch func(ctx context.Context) (T, error)) *Resource[T] {
	return &Resource[T]{fetch: fetch}
}

// Load 拉取数据并更新容器状态
//
// 成功时替换缓存并清除错误；失败时保留上次成功的数据。
func (r *Resource[T]) Load(ctx context.Context) error {
	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()

	data, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	r.err = err
	if err == nil {
		r.data = data
		r.loaded = true
	}
	return err
}

// Get 返回缓存的数据与是否已成功加载过
func (r *Resource[T]) Get() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data, r.loaded
}

// Loading 是否有拉取正在进行
func (r *Resource[T]) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Err 最近一次拉取的错误（成功后清除）
func (r *Resource[T]) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Invalidate 清空缓存状态，下次 Get 报告未加载
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.data = zero
	r.loaded = false
	r.err = nil
}
