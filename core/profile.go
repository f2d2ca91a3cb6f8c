package core

import (
	"sort"
	"time"
)

// PreferenceProfile 是用户口味画像的核心抽象。
//
// 一句话定义：画像 = "归一化口味向量 + 有界置信度 + 类型亲和度"
//
// 设计要点：
//
//	维度             作用
//	Vector           内容打分 / 群体质心的核心输入
//	Confidence       向量可信度，驱动自适应学习率与群体加权
//	GenreAffinities  可解释的类型偏好（0-1）
//	MoodMappings     情绪→偏好映射（上层场景调权）
//	TemporalPatterns 时段观影模式（上层场景调权）
//
// 不变量：
//   - Vector 为 nil 表示冷启动（无信号），非 nil 时恒为 L2 归一化
//   - Confidence 经过任何一次学习更新后落在 [MinConfidence, MaxConfidence]
//   - 只有 PreferenceLearner 会修改画像；删除（隐私擦除）重置为冷启动值
type PreferenceProfile struct {
	UserID string

	// Vector 口味向量，nil 表示冷启动
	Vector []float64

	// Confidence 置信度，新用户为 0，学习后有界
	Confidence float64

	// GenreAffinities 类型亲和度，key: genre id，value: 0-1
	GenreAffinities map[int]float64

	// MoodMappings 情绪映射（可选，上层填充）
	MoodMappings map[string]float64

	// TemporalPatterns 时段模式（可选，上层填充）
	TemporalPatterns map[string]float64

	// UpdatedAt 最后更新时间
	UpdatedAt time.Time
}

// NewPreferenceProfile 创建冷启动画像：无向量、零置信度、空亲和度。
func NewPreferenceProfile(userID string) *PreferenceProfile {
	return &PreferenceProfile{
		UserID:           userID,
		Vector:           nil,
		Confidence:       0,
		GenreAffinities:  make(map[int]float64),
		MoodMappings:     make(map[string]float64),
		TemporalPatterns: make(map[string]float64),
		UpdatedAt:        time.Now(),
	}
}

// IsColdStart 判断画像是否处于冷启动状态（无口味向量）。
func (p *PreferenceProfile) IsColdStart() bool {
	return p == nil || len(p.Vector) == 0
}

// Clone 深拷贝画像，学习链路在拷贝上更新后整体写回，避免半更新状态外泄。
func (p *PreferenceProfile) Clone() *PreferenceProfile {
	if p == nil {
		return nil
	}
	cp := &PreferenceProfile{
		UserID:     p.UserID,
		Confidence: p.Confidence,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Vector != nil {
		cp.Vector = make([]float64, len(p.Vector))
		copy(cp.Vector, p.Vector)
	}
	cp.GenreAffinities = make(map[int]float64, len(p.GenreAffinities))
	for k, v := range p.GenreAffinities {
		cp.GenreAffinities[k] = v
	}
	cp.MoodMappings = make(map[string]float64, len(p.MoodMappings))
	for k, v := range p.MoodMappings {
		cp.MoodMappings[k] = v
	}
	cp.TemporalPatterns = make(map[string]float64, len(p.TemporalPatterns))
	for k, v := range p.TemporalPatterns {
		cp.TemporalPatterns[k] = v
	}
	return cp
}

// GenreAffinity 是 TopGenres 的返回条目。
type GenreAffinity struct {
	GenreID  int
	Affinity float64
}

// TopGenres 返回亲和度最高的 n 个类型（降序，同分按 genre id 升序保证稳定）。
func (p *PreferenceProfile) TopGenres(n int) []GenreAffinity {
	if p == nil || len(p.GenreAffinities) == 0 || n <= 0 {
		return nil
	}
	out := make([]GenreAffinity, 0, len(p.GenreAffinities))
	for id, aff := range p.GenreAffinities {
		out = append(out, GenreAffinity{GenreID: id, Affinity: aff})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Affinity != out[j].Affinity {
			return out[i].Affinity > out[j].Affinity
		}
		return out[i].GenreID < out[j].GenreID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// PreferenceExport 是面向隐私导出的画像快照。
// 口味向量刻意不导出：向量是派生数据且无用户可读语义。
type PreferenceExport struct {
	UserID           string             `json:"user_id"`
	Confidence       float64            `json:"confidence"`
	GenreAffinities  map[int]float64    `json:"genre_affinities"`
	MoodMappings     map[string]float64 `json:"mood_mappings"`
	TemporalPatterns map[string]float64 `json:"temporal_patterns"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Export 生成隐私可携带的画像快照（不含向量）。
func (p *PreferenceProfile) Export() *PreferenceExport {
	if p == nil {
		return nil
	}
	cp := p.Clone()
	return &PreferenceExport{
		UserID:           cp.UserID,
		Confidence:       cp.Confidence,
		GenreAffinities:  cp.GenreAffinities,
		MoodMappings:     cp.MoodMappings,
		TemporalPatterns: cp.TemporalPatterns,
		UpdatedAt:        cp.UpdatedAt,
	}
}
