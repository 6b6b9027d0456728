// Package config 加载推荐服务配置：日志、相似图、存储后端与声明式策略。
//
//	log:
//	  level: info
//	graph:
//	  threshold: 0.2
//	  similar_min_similarity: 0.3
//	  rebuild_interval: 10m
//	store:
//	  backend: redis
//	  redis_addr: 127.0.0.1:6379
//	strategies:
//	  - name: diverse
//	    nodes:
//	      - type: filter.hard
//	      - type: rank.score
//	      - type: rerank.diversity
//	        config: {key: neighborhood, max_per_group: 2}
//	active_strategy: diverse
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/graph"
	"github.com/rushteam/roomrec/pipeline"
	"github.com/rushteam/roomrec/pkg/logging"
	"github.com/rushteam/roomrec/recommend"
)

// Config 是服务的完整配置
type Config struct {
	Log            logging.Config    `yaml:"log"`
	Graph          GraphConfig       `yaml:"graph"`
	Store          StoreConfig       `yaml:"store"`
	Strategies     []pipeline.Config `yaml:"strategies" validate:"dive"`
	ActiveStrategy string            `yaml:"active_strategy"`
}

// GraphConfig 相似图配置
type GraphConfig struct {
	// Threshold 建图时边权必须大于该值
	Threshold float64 `yaml:"threshold" validate:"gte=0,lte=1"`

	// SimilarMinSimilarity SimilarTo 查询的最小边权
	SimilarMinSimilarity float64 `yaml:"similar_min_similarity" validate:"gte=0,lte=1"`

	// Workers 重建并发数，0 表示 GOMAXPROCS
	Workers int `yaml:"workers" validate:"gte=0"`

	// RebuildInterval 周期重建间隔，0 表示不周期重建
	RebuildInterval time.Duration `yaml:"rebuild_interval" validate:"gte=0"`
}

// StoreConfig 存储后端配置
type StoreConfig struct {
	Backend    string `yaml:"backend" validate:"required,oneof=memory redis sqlite"`
	RedisAddr  string `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB    int    `yaml:"redis_db" validate:"gte=0"`
	SQLitePath string `yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
	KeyPrefix  string `yaml:"key_prefix" validate:"required"`

	// HiddenListings 是否启用用户隐藏列表
	HiddenListings bool `yaml:"hidden_listings"`

	// KnownUsersOnly 为 true 时只为用户目录中登记过的用户推荐
	KnownUsersOnly bool `yaml:"known_users_only"`
}

// Default 返回默认配置：内存存储，只有内置 score-based 策略。
func Default() *Config {
	return &Config{
		Log: logging.Config{Level: "info", Format: "json"},
		Graph: GraphConfig{
			Threshold:            graph.DefaultThreshold,
			SimilarMinSimilarity: recommend.DefaultSimilarMinSimilarity,
		},
		Store: StoreConfig{
			Backend:   "memory",
			KeyPrefix: "roomrec",
		},
		ActiveStrategy: recommend.ScoreBasedStrategy,
	}
}

// LoadFromYAML 从文件加载配置，未出现的字段保留默认值。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 并校验
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置，失败返回 INVALID_ARGUMENT。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return core.InvalidArgumentf(core.ModuleConfig, "invalid config: %v", err)
	}
	seen := map[string]struct{}{recommend.ScoreBasedStrategy: {}}
	for _, s := range c.Strategies {
		if _, dup := seen[s.Name]; dup {
			return core.InvalidArgumentf(core.ModuleConfig, "duplicate strategy %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	if c.ActiveStrategy != "" {
		if _, ok := seen[c.ActiveStrategy]; !ok {
			return core.InvalidArgumentf(core.ModuleConfig, "active strategy %q is not defined", c.ActiveStrategy)
		}
	}
	return nil
}

// BuildStrategies 用 factory 构建 strategies 中声明的所有策略。
func (c *Config) BuildStrategies(factory *pipeline.NodeFactory) ([]recommend.Strategy, error) {
	out := make([]recommend.Strategy, 0, len(c.Strategies))
	for i := range c.Strategies {
		sc := &c.Strategies[i]
		if err := ValidatePipelineConfig(sc, factory); err != nil {
			return nil, core.InvalidArgumentf(core.ModuleConfig, "%v", err)
		}
		p, err := sc.BuildPipeline(factory)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", sc.Name, err)
		}
		out = append(out, recommend.NewPipelineStrategy(sc.Name, p))
	}
	return out, nil
}
