// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置（最终使用的配置）
type Config struct {
	Env      Environment
	APIPort  string
	Database DatabaseConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	TokenTTL time.Duration
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息
	yamlCfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	yamlCfg.MinIO.AccessKey = getEnv("MINIO_ROOT_USER", "")
	yamlCfg.MinIO.SecretKey = getEnv("MINIO_ROOT_PASSWORD", "")
	yamlCfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	yamlCfg.Auth.AdminUsername = getEnv("ADMIN_USERNAME", "")
	yamlCfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", "")

	// 环境变量覆盖
	if uri := getEnv("MONGO_URI", ""); uri != "" {
		yamlCfg.Database.URI = uri
	}
	if port := getEnv("API_PORT", ""); port != "" {
		yamlCfg.Server.Port = port
	}

	cfg := &Config{
		Env:      env,
		APIPort:  yamlCfg.Server.Port,
		Database: yamlCfg.Database,
		Redis:    yamlCfg.Redis,
		MinIO:    yamlCfg.MinIO,
		Auth:     yamlCfg.Auth,
		TokenTTL: parseTTL(yamlCfg.Auth.TokenTTL, 7*24*time.Hour),
	}
	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "mongodb", URI: "mongodb://localhost:27017", Name: "cocktail_hub"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		MinIO:    MinIOConfig{Endpoint: "localhost:9000", Bucket: "cocktail-hub"},
		Auth:     AuthConfig{TokenTTL: "168h"},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// RedisAddr 返回 Redis 地址
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func parseTTL(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏敏感信息）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Port: %s, DB: %s/%s, Redis: %v, MinIO: %v}",
		c.Env, c.APIPort, c.Database.Driver, c.Database.Name, c.Redis.Enabled, c.MinIO.Enabled)
}
