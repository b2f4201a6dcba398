// Package model 定义核心数据模型
package model

import "time"

// UserRole 用户角色（封闭枚举，避免裸字符串比较）
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// Valid 校验角色是否为已知值
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleUser:
		return true
	}
	return false
}

// User 用户账号
//
// Username 唯一（登录凭据）；PasswordHash 永不通过 JSON 暴露；
// AvatarKey 为对象存储中的头像 key（可选）。
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         UserRole  `json:"role" bson:"role"`
	DisplayName  string    `json:"displayName" bson:"display_name"`
	AvatarKey    string    `json:"avatar,omitempty" bson:"avatar_key,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
