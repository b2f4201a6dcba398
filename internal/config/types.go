package config

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "mongodb"（默认）或 "memory"（本地开发，无持久化）
	URI    string `yaml:"uri"`    // MongoDB 连接 URI，如 mongodb://localhost:27017
	Name   string `yaml:"name"`   // 数据库名称
}

// RedisConfig Redis 配置（会话缓存；未启用时登出不做令牌吊销）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // 只从 REDIS_PASSWORD 环境变量读取
}

// MinIOConfig MinIO 对象存储配置（图片；未启用时创建接口忽略上传文件）
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret     string `yaml:"-"`         // 只从 JWT_SECRET 环境变量读取
	TokenTTL      string `yaml:"token_ttl"` // 例如 "168h"
	AdminUsername string `yaml:"-"`         // 只从 ADMIN_USERNAME 环境变量读取
	AdminPassword string `yaml:"-"`         // 只从 ADMIN_PASSWORD 环境变量读取
}
