// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"cosinnus_server/pkg/constants"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName         string `toml:"appName"`         // 应用名称，用于日志标识等
	Host            string `toml:"host"`            // 服务器监听地址，如 "0.0.0.0"
	Port            int    `toml:"port"`            // 服务器监听端口，如 8000
	Mode            string `toml:"mode"`            // 运行模式："dev" 或 "release"
	Locale          string `toml:"locale"`          // 参数校验提示语言："zh" 或 "en"
	ForceTLS        bool   `toml:"forceTLS"`        // 是否强制跳转 HTTPS
	DefaultPortalID uint   `toml:"defaultPortalId"` // 请求未指定门户时使用的门户
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Password  string `toml:"password"` // 无密码留空
	Db        int    `toml:"db"`
	WorkerNum int    `toml:"workerNum"` // 异步缓存任务 Worker 数量
	TaskQueue int    `toml:"taskQueue"` // 异步缓存任务缓冲区大小
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 成员变更事件总线配置
type KafkaConfig struct {
	MessageMode     string        `toml:"messageMode"`     // 事件模式："channel" 或 "kafka"
	HostPort        string        `toml:"hostPort"`        // Kafka 服务器地址，如 "localhost:9092"
	MembershipTopic string        `toml:"membershipTopic"` // 成员变更事件主题
	ConsumerGroup   string        `toml:"consumerGroup"`   // 消费者组
	Partition       int           `toml:"partition"`       // 分区数
	Timeout         time.Duration `toml:"timeout"`         // 超时时间（秒）
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`            // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // Access Token 有效期（分钟）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 范围 0-1023，分布式部署时每台机器需唯一
}

// StreamConfig 动态流聚合与成员缓存配置
type StreamConfig struct {
	ChunkSize      int  `toml:"chunkSize"`      // 每种内容类型单次预取条数
	PageSize       int  `toml:"pageSize"`       // 默认每页条数
	MemberCacheTTL int  `toml:"memberCacheTTL"` // 成员缓存有效期（秒）
	UnreadCacheTTL int  `toml:"unreadCacheTTL"` // 未读数缓存有效期（秒）
	Debug          bool `toml:"debug"`          // 调试模式下内容类型配置错误直接返回
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	MysqlConfig     `toml:"mysqlConfig"`
	RedisConfig     `toml:"redisConfig"`
	LogConfig       `toml:"logConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	JWTConfig       `toml:"jwtConfig"`
	SnowflakeConfig `toml:"snowflakeConfig"`
	StreamConfig    `toml:"streamConfig"`
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() error {
	if config == nil {
		config = new(Config)
	}
	paths := []string{
		"configs/config_local.toml",
		"configs/config.toml",
		"../../configs/config_local.toml", // 从子目录运行时的路径
		"../../configs/config.toml",
	}

	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}

	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// Decode 从字符串解析配置并补齐默认值，主要供测试使用
func Decode(data string) (*Config, error) {
	conf := new(Config)
	if _, err := toml.Decode(data, conf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	conf.applyDefaults()
	return conf, nil
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig() // 忽略加载错误，使用默认值
		config.applyDefaults()
	}
	return config
}

// applyDefaults 为未配置的字段填充默认值
func (c *Config) applyDefaults() {
	if c.MainConfig.AppName == "" {
		c.MainConfig.AppName = "cosinnus_server"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.MainConfig.Mode == "" {
		c.MainConfig.Mode = "dev"
	}
	if c.MainConfig.Locale == "" {
		c.MainConfig.Locale = "zh"
	}
	if c.MainConfig.DefaultPortalID == 0 {
		c.MainConfig.DefaultPortalID = 1
	}
	if c.RedisConfig.WorkerNum == 0 {
		c.RedisConfig.WorkerNum = 15
	}
	if c.RedisConfig.TaskQueue == 0 {
		c.RedisConfig.TaskQueue = 3000
	}
	if c.KafkaConfig.MessageMode == "" {
		c.KafkaConfig.MessageMode = "channel"
	}
	if c.KafkaConfig.MembershipTopic == "" {
		c.KafkaConfig.MembershipTopic = "cosinnus_membership"
	}
	if c.KafkaConfig.ConsumerGroup == "" {
		c.KafkaConfig.ConsumerGroup = "cosinnus"
	}
	if c.KafkaConfig.Timeout == 0 {
		c.KafkaConfig.Timeout = 1
	}
	if c.JWTConfig.AccessTokenExpiry == 0 {
		c.JWTConfig.AccessTokenExpiry = 60
	}
	if c.StreamConfig.ChunkSize <= 0 {
		c.StreamConfig.ChunkSize = constants.DEFAULT_CHUNK_SIZE
	}
	if c.StreamConfig.PageSize <= 0 {
		c.StreamConfig.PageSize = constants.DEFAULT_PAGE_SIZE
	}
	if c.StreamConfig.MemberCacheTTL <= 0 {
		c.StreamConfig.MemberCacheTTL = int(constants.MEMBER_CACHE_TTL / time.Second)
	}
	if c.StreamConfig.UnreadCacheTTL <= 0 {
		c.StreamConfig.UnreadCacheTTL = int(constants.UNREAD_CACHE_TTL / time.Second)
	}
}

// MemberCacheDuration 成员缓存有效期
func (c *StreamConfig) MemberCacheDuration() time.Duration {
	return time.Duration(c.MemberCacheTTL) * time.Second
}

// UnreadCacheDuration 未读数缓存有效期
func (c *StreamConfig) UnreadCacheDuration() time.Duration {
	return time.Duration(c.UnreadCacheTTL) * time.Second
}
