package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUserRole(t *testing.T) {
	tests := []struct {
		role  UserRole
		want  string
		valid bool
	}{
		{UserRoleAdmin, "admin", true},
		{UserRoleUser, "user", true},
		{UserRole("root"), "root", false},
		{UserRole(""), "", false},
	}

	for _, tt := range tests {
		if string(tt.role) != tt.want {
			t.Errorf("UserRole = %v, want %v", tt.role, tt.want)
		}
		if tt.role.Valid() != tt.valid {
			t.Errorf("UserRole(%q).Valid() = %v, want %v", tt.role, tt.role.Valid(), tt.valid)
		}
	}
}

// TestUserPasswordHashNotSerialized 密码哈希不得出现在 JSON 输出中
func TestUserPasswordHashNotSerialized(t *testing.T) {
	u := &User{
		ID:           "usr-001",
		Username:     "user@gmail.com",
		PasswordHash: "$2a$12$secret",
		Role:         UserRoleUser,
		DisplayName:  "User",
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Failed to marshal user: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("PasswordHash leaked into JSON: %s", data)
	}

	var decoded User
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal user: %v", err)
	}
	if decoded.Username != u.Username {
		t.Errorf("Username = %v, want %v", decoded.Username, u.Username)
	}
	if decoded.Role != u.Role {
		t.Errorf("Role = %v, want %v", decoded.Role, u.Role)
	}
}
