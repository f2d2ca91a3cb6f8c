// Package config 提供引擎装配：一份 EngineConfig（YAML/默认值）构建出
// 共享同一向量生成器与缓存的 Personalizer + group.Engine。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fall-development-rob/hackathon-tv5-sub003/cache"
	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
	"github.com/fall-development-rob/hackathon-tv5-sub003/embedding"
	"github.com/fall-development-rob/hackathon-tv5-sub003/feast"
	"github.com/fall-development-rob/hackathon-tv5-sub003/group"
	"github.com/fall-development-rob/hackathon-tv5-sub003/learn"
	"github.com/fall-development-rob/hackathon-tv5-sub003/store"
)

// LearnParams 是可配置的学习参数，实现 core.LearnConfig。
type LearnParams struct {
	MinConf  float64 `yaml:"min_confidence"`
	MaxConf  float64 `yaml:"max_confidence"`
	BaseRate float64 `yaml:"base_learning_rate"`
	MinRate  float64 `yaml:"min_learning_rate"`
	MaxRate  float64 `yaml:"max_learning_rate"`
}

func (p LearnParams) MinConfidence() float64    { return p.MinConf }
func (p LearnParams) MaxConfidence() float64    { return p.MaxConf }
func (p LearnParams) BaseLearningRate() float64 { return p.BaseRate }
func (p LearnParams) MinLearningRate() float64  { return p.MinRate }
func (p LearnParams) MaxLearningRate() float64  { return p.MaxRate }

var _ core.LearnConfig = LearnParams{}

// StoreConfig 选择画像存储后端。
type StoreConfig struct {
	// Backend: "memory"（默认）或 "redis"
	Backend string `yaml:"backend"`

	// Addr Redis 地址，例如 "localhost:6379"
	Addr string `yaml:"addr"`

	// DB Redis 库号
	DB int `yaml:"db"`

	// ProfileTTLHours 画像过期时间（小时），0 表示不过期
	ProfileTTLHours int `yaml:"profile_ttl_hours"`
}

// FeastConfig 可选的 Feast 预计算向量源。
type FeastConfig struct {
	// Endpoint gRPC 端点，例如 "localhost:6565"；为空表示不启用
	Endpoint string `yaml:"endpoint"`

	// Project Feast 项目名
	Project string `yaml:"project"`

	// VectorFeature 向量特征名，默认 feast.DefaultVectorFeature
	VectorFeature string `yaml:"vector_feature"`
}

// EngineConfig 是引擎的完整配置。
type EngineConfig struct {
	// Embedding 向量生成配置，nil 时用默认值
	Embedding *embedding.Config `yaml:"embedding"`

	Learn LearnParams `yaml:"learn"`

	// CacheSize 向量 memo 缓存容量
	CacheSize int `yaml:"cache_size"`

	// MaxConcurrent 群体打分的最大并发数
	MaxConcurrent int `yaml:"max_concurrent"`

	// SessionTTLMinutes 会话清理阈值（分钟），供宿主定期调用 CleanupSessions
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`

	Store StoreConfig `yaml:"store"`

	Feast FeastConfig `yaml:"feast"`
}

// DefaultEngineConfig 返回全默认配置：内存存储、本地向量生成。
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Embedding: embedding.DefaultConfig(),
		Learn: LearnParams{
			MinConf:  0.1,
			MaxConf:  0.95,
			BaseRate: 0.3,
			MinRate:  0.1,
			MaxRate:  0.7,
		},
		CacheSize:         1000,
		MaxConcurrent:     8,
		SessionTTLMinutes: 240,
		Store:             StoreConfig{Backend: "memory"},
	}
}

// LoadFromYAML 从 YAML 文件加载引擎配置，未给出的字段用默认值补齐。
func LoadFromYAML(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c *EngineConfig) validate() error {
	if c.CacheSize <= 0 {
		return core.NewDomainError("config", core.ErrorCodeInvalidInput, "config: cache_size must be positive")
	}
	if c.Learn.MinConf >= c.Learn.MaxConf {
		return core.NewDomainError("config", core.ErrorCodeInvalidInput, "config: min_confidence must be below max_confidence")
	}
	if c.Learn.MinRate > c.Learn.MaxRate {
		return core.NewDomainError("config", core.ErrorCodeInvalidInput, "config: min_learning_rate above max_learning_rate")
	}
	switch c.Store.Backend {
	case "", "memory", "redis":
	default:
		return core.NewDomainError("config", core.ErrorCodeInvalidInput,
			fmt.Sprintf("config: unknown store backend %q", c.Store.Backend))
	}
	return nil
}

// SessionTTL 返回会话清理阈值。
func (c *EngineConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Engine 是装配完成的引擎：个人链路与群体链路共享同一个
// 向量生成器、memo 缓存与画像存储。
type Engine struct {
	Personalizer *learn.Personalizer
	Group        *group.Engine

	Embedder core.EmbeddingService
	Store    core.PreferenceStore
	Cache    *cache.Cache[string, []float64]
}

// Close 释放存储连接等资源。
func (e *Engine) Close() error {
	return e.Store.Close()
}

// Build 按配置装配引擎。
func (c *EngineConfig) Build() (*Engine, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	embCfg := c.Embedding
	if embCfg == nil {
		embCfg = embedding.DefaultConfig()
	}

	memo := cache.New[string, []float64](c.CacheSize)
	gen := embedding.NewGenerator(embCfg, memo)

	var embedder core.EmbeddingService = gen
	if c.Feast.Endpoint != "" {
		host, port := splitEndpoint(c.Feast.Endpoint)
		client, err := feast.NewGrpcClient(host, port, c.Feast.Project)
		if err != nil {
			return nil, err
		}
		opts := []feast.AdapterOption{feast.WithFallback(gen)}
		if c.Feast.VectorFeature != "" {
			opts = append(opts, feast.WithVectorFeature(c.Feast.VectorFeature))
		}
		embedder = feast.NewAdapter(client, opts...)
	}

	prefStore, err := c.buildStore()
	if err != nil {
		return nil, err
	}

	groupOpts := []group.Option{group.WithMaxConcurrent(c.MaxConcurrent)}
	if social, ok := prefStore.(core.SocialGraphStore); ok {
		groupOpts = append(groupOpts, group.WithSocialGraph(social))
	}

	return &Engine{
		Personalizer: learn.NewPersonalizer(prefStore, embedder, c.Learn),
		Group:        group.NewEngine(prefStore, embedder, groupOpts...),
		Embedder:     embedder,
		Store:        prefStore,
		Cache:        memo,
	}, nil
}

func (c *EngineConfig) buildStore() (core.PreferenceStore, error) {
	if c.Store.Backend == "redis" {
		var opts []store.RedisOption
		if c.Store.ProfileTTLHours > 0 {
			opts = append(opts, store.WithProfileTTL(time.Duration(c.Store.ProfileTTLHours)*time.Hour))
		}
		return store.NewRedisStore(c.Store.Addr, c.Store.DB, opts...)
	}
	return store.NewMemoryStore(), nil
}

// splitEndpoint 解析 "host:port" 形式的端点，端口缺失或非法时返回 0
// （由客户端回退到默认端口）。
func splitEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")
	host, portStr, found := strings.Cut(endpoint, ":")
	if !found {
		return endpoint, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}
