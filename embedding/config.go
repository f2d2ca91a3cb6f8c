package embedding

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是特征向量生成器的配置（支持 YAML/JSON）。
//
// genre 向量表和各子向量权重是不可变配置数据：构造时注入一次，
// 生成器运行期间只读。替换表/权重即可在测试中构造可控的生成器。
type Config struct {
	// 子向量维度
	GenreDim    int `yaml:"genre_dim" json:"genre_dim"`
	TypeDim     int `yaml:"type_dim" json:"type_dim"`
	MetadataDim int `yaml:"metadata_dim" json:"metadata_dim"`
	KeywordDim  int `yaml:"keyword_dim" json:"keyword_dim"`

	// 子向量权重（不要求和为 1，拼接后整体 L2 归一化）
	GenreWeight    float64 `yaml:"genre_weight" json:"genre_weight"`
	TypeWeight     float64 `yaml:"type_weight" json:"type_weight"`
	MetadataWeight float64 `yaml:"metadata_weight" json:"metadata_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight" json:"keyword_weight"`

	// GenreVectors 每个 genre id 的单位方向向量（长度 = GenreDim）。
	// 未知/空 genre 回退到 DefaultGenreVector。
	GenreVectors map[int][]float64 `yaml:"genre_vectors" json:"genre_vectors"`

	// DefaultGenreVector 兜底向量（各分量中点）
	DefaultGenreVector []float64 `yaml:"default_genre_vector" json:"default_genre_vector"`

	// 元数据归一化参数
	PopularityScale   float64 `yaml:"popularity_scale" json:"popularity_scale"`           // 热度线性封顶刻度
	RecencyHorizonYrs float64 `yaml:"recency_horizon_years" json:"recency_horizon_years"` // 新旧度衰减到 0 的年限
	RuntimeScaleMin   float64 `yaml:"runtime_scale_minutes" json:"runtime_scale_minutes"` // 时长线性封顶刻度（分钟）
}

// Dim 返回完整向量的维度。
func (c *Config) Dim() int {
	return c.GenreDim + c.TypeDim + c.MetadataDim + c.KeywordDim
}

// DefaultConfig 返回默认配置：64 维（10+8+8+38），权重 0.30/0.15/0.25/0.30。
func DefaultConfig() *Config {
	return &Config{
		GenreDim:    10,
		TypeDim:     8,
		MetadataDim: 8,
		KeywordDim:  38,

		GenreWeight:    0.30,
		TypeWeight:     0.15,
		MetadataWeight: 0.25,
		KeywordWeight:  0.30,

		GenreVectors:       defaultGenreVectors(),
		DefaultGenreVector: defaultGenreFallback(),

		PopularityScale:   100,
		RecencyHorizonYrs: 20,
		RuntimeScaleMin:   240,
	}
}

// LoadFromYAML 从 YAML 文件加载配置，未给出的字段用默认值补齐。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFromJSON 从 JSON 文件加载配置，未给出的字段用默认值补齐。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.GenreDim <= 0 || c.TypeDim <= 0 || c.MetadataDim <= 0 || c.KeywordDim <= 0 {
		return fmt.Errorf("embedding config: all sub-vector dims must be positive")
	}
	if len(c.DefaultGenreVector) != c.GenreDim {
		return fmt.Errorf("embedding config: default genre vector dim %d != %d", len(c.DefaultGenreVector), c.GenreDim)
	}
	for id, v := range c.GenreVectors {
		if len(v) != c.GenreDim {
			return fmt.Errorf("embedding config: genre %d vector dim %d != %d", id, len(v), c.GenreDim)
		}
	}
	return nil
}

// defaultGenreVectors 返回内置的 genre 方向向量表（TMDB genre id）。
//
// 10 个轴的语义（依次）：
// action, comedy, drama, suspense, fantastic, grounded, family, dark, romance, cerebral
func defaultGenreVectors() map[int][]float64 {
	return map[int][]float64{
		28:    {0.9, 0.1, 0.2, 0.5, 0.3, 0.4, 0.2, 0.3, 0.1, 0.2}, // action
		12:    {0.8, 0.3, 0.3, 0.4, 0.6, 0.3, 0.5, 0.1, 0.2, 0.2}, // adventure
		16:    {0.4, 0.6, 0.3, 0.1, 0.8, 0.1, 0.9, 0.1, 0.3, 0.2}, // animation
		35:    {0.2, 0.9, 0.3, 0.1, 0.2, 0.6, 0.5, 0.1, 0.4, 0.2}, // comedy
		80:    {0.5, 0.1, 0.6, 0.8, 0.1, 0.7, 0.1, 0.8, 0.1, 0.5}, // crime
		99:    {0.1, 0.1, 0.5, 0.2, 0.1, 0.9, 0.4, 0.2, 0.1, 0.8}, // documentary
		18:    {0.1, 0.2, 0.9, 0.3, 0.1, 0.8, 0.3, 0.4, 0.5, 0.6}, // drama
		10751: {0.3, 0.6, 0.4, 0.1, 0.5, 0.4, 0.9, 0.1, 0.3, 0.2}, // family
		14:    {0.5, 0.3, 0.3, 0.3, 0.9, 0.1, 0.5, 0.3, 0.3, 0.3}, // fantasy
		36:    {0.3, 0.1, 0.7, 0.3, 0.1, 0.9, 0.3, 0.3, 0.2, 0.7}, // history
		27:    {0.4, 0.1, 0.3, 0.9, 0.5, 0.3, 0.1, 0.9, 0.1, 0.3}, // horror
		10402: {0.2, 0.4, 0.5, 0.1, 0.3, 0.6, 0.5, 0.1, 0.5, 0.3}, // music
		9648:  {0.3, 0.1, 0.5, 0.9, 0.3, 0.5, 0.2, 0.6, 0.2, 0.8}, // mystery
		10749: {0.1, 0.5, 0.7, 0.1, 0.2, 0.6, 0.4, 0.1, 0.9, 0.3}, // romance
		878:   {0.6, 0.2, 0.4, 0.5, 0.9, 0.2, 0.3, 0.4, 0.2, 0.7}, // science fiction
		10770: {0.2, 0.4, 0.6, 0.2, 0.2, 0.6, 0.6, 0.2, 0.5, 0.2}, // tv movie
		53:    {0.6, 0.1, 0.4, 0.9, 0.2, 0.5, 0.1, 0.7, 0.2, 0.5}, // thriller
		10752: {0.7, 0.1, 0.7, 0.5, 0.2, 0.8, 0.1, 0.7, 0.2, 0.5}, // war
		37:    {0.7, 0.2, 0.5, 0.4, 0.2, 0.7, 0.2, 0.4, 0.2, 0.3}, // western
	}
}

// defaultGenreFallback 返回未知/空 genre 的兜底向量：各分量中点。
func defaultGenreFallback() []float64 {
	v := make([]float64, 10)
	for i := range v {
		v[i] = 0.5
	}
	return v
}
