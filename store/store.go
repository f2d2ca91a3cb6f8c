// Package store 包含画像与社交信号存储的基础设施实现。
// 接口定义在 core 包（core.PreferenceStore / core.SocialGraphStore）。
//
// 示例：
//
//	var ps core.PreferenceStore = store.NewMemoryStore()
//	var sg core.SocialGraphStore = store.NewMemoryStore()
package store

import (
	"time"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
)

// profileRecord 是画像的持久化形态，字段与 core.PreferenceProfile 一一对应。
// 向量随画像整体存储，wire 格式为 JSON。
type profileRecord struct {
	UserID           string             `json:"user_id"`
	Vector           []float64          `json:"vector,omitempty"`
	Confidence       float64            `json:"confidence"`
	GenreAffinities  map[int]float64    `json:"genre_affinities,omitempty"`
	MoodMappings     map[string]float64 `json:"mood_mappings,omitempty"`
	TemporalPatterns map[string]float64 `json:"temporal_patterns,omitempty"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func toRecord(p *core.PreferenceProfile) *profileRecord {
	return &profileRecord{
		UserID:           p.UserID,
		Vector:           p.Vector,
		Confidence:       p.Confidence,
		GenreAffinities:  p.GenreAffinities,
		MoodMappings:     p.MoodMappings,
		TemporalPatterns: p.TemporalPatterns,
		UpdatedAt:        p.UpdatedAt,
	}
}

func fromRecord(r *profileRecord) *core.PreferenceProfile {
	p := &core.PreferenceProfile{
		UserID:           r.UserID,
		Vector:           r.Vector,
		Confidence:       r.Confidence,
		GenreAffinities:  r.GenreAffinities,
		MoodMappings:     r.MoodMappings,
		TemporalPatterns: r.TemporalPatterns,
		UpdatedAt:        r.UpdatedAt,
	}
	if p.GenreAffinities == nil {
		p.GenreAffinities = make(map[int]float64)
	}
	if p.MoodMappings == nil {
		p.MoodMappings = make(map[string]float64)
	}
	if p.TemporalPatterns == nil {
		p.TemporalPatterns = make(map[string]float64)
	}
	return p
}

// pairKey 归一化无向用户对的 key（小 ID 在前）。
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
