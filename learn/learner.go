// Package learn 实现偏好学习：观看信号 → 自适应 EMA 更新画像
// （口味向量、有界置信度、类型亲和度）。
//
// 四个计算函数全部是纯函数，可独立测试；Personalizer 负责组合它们
// 并通过注入的 PreferenceStore 持久化。
package learn

import (
	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
	"github.com/fall-development-rob/hackathon-tv5-sub003/pkg/vector"
)

// SignalStrength 把观看信号汇总为 [0,1] 的兴趣强度：
//
//	完成度 × 0.4
//	+ 评分/10 × 0.3（有评分时）；无评分但完成度 > 0.8 时补 0.15
//	+ 0.2（重复观看时）
//	+ 时长占比 × 0.1
//
// 求和后封顶 1。
func SignalStrength(s core.WatchSignal) float64 {
	strength := s.CompletionRate * 0.4

	if s.HasRating {
		strength += s.Rating / 10 * 0.3
	} else if s.CompletionRate > 0.8 {
		strength += 0.15
	}

	if s.IsRewatch {
		strength += 0.2
	}

	strength += s.DurationRatio * 0.1

	if strength > 1 {
		strength = 1
	}
	return strength
}

// LearningRate 计算自适应学习率：
//
//	base × (1 + (1 - confidence)) × (0.5 + 0.5 × signalStrength)
//
// 低置信度用户和强信号都会加速学习；结果收敛到 [MinLearningRate, MaxLearningRate]。
func LearningRate(cfg core.LearnConfig, currentConfidence, signalStrength float64) float64 {
	rate := cfg.BaseLearningRate() * (1 + (1 - currentConfidence)) * (0.5 + 0.5*signalStrength)
	if rate < cfg.MinLearningRate() {
		rate = cfg.MinLearningRate()
	}
	if rate > cfg.MaxLearningRate() {
		rate = cfg.MaxLearningRate()
	}
	return rate
}

// UpdateVector 用 EMA 更新口味向量：(1-rate)×current + rate×new，再 L2 归一化。
// 冷启动（current 为空）或维度变更时直接采用 newEmbedding（已归一化）。
func UpdateVector(current, newEmbedding []float64, rate float64) []float64 {
	if len(current) == 0 || len(current) != len(newEmbedding) {
		out := make([]float64, len(newEmbedding))
		copy(out, newEmbedding)
		return out
	}
	out := make([]float64, len(current))
	for i := range current {
		out[i] = (1-rate)*current[i] + rate*newEmbedding[i]
	}
	return vector.L2Normalize(out)
}

// UpdateConfidence 更新置信度：强信号（>0.5）时向上界移动剩余距离的 10%，
// 否则向 0 衰减当前值的 5%；结果收敛到 [MinConfidence, MaxConfidence]，
// 置信度永不触及 0 或 1。
func UpdateConfidence(cfg core.LearnConfig, current, signalStrength float64) float64 {
	var next float64
	if signalStrength > 0.5 {
		next = current + 0.1*(cfg.MaxConfidence()-current)
	} else {
		next = current * 0.95
	}
	if next < cfg.MinConfidence() {
		next = cfg.MinConfidence()
	}
	if next > cfg.MaxConfidence() {
		next = cfg.MaxConfidence()
	}
	return next
}

// UpdateGenreAffinities 更新类型亲和度：对观看内容的每个 genre，
// 把存量亲和度（未见过默认 0.5）向 1.0（强信号）或 0.0（弱信号）
// 移动 10%×signalStrength 的距离，收敛到 [0,1]。返回新 map，不修改入参。
func UpdateGenreAffinities(current map[int]float64, genreIDs []int, signalStrength float64) map[int]float64 {
	out := make(map[int]float64, len(current)+len(genreIDs))
	for k, v := range current {
		out[k] = v
	}

	step := 0.1 * signalStrength
	for _, id := range genreIDs {
		aff, ok := out[id]
		if !ok {
			aff = 0.5
		}
		if signalStrength > 0.5 {
			aff += step * (1 - aff)
		} else {
			aff -= step * aff
		}
		if aff < 0 {
			aff = 0
		}
		if aff > 1 {
			aff = 1
		}
		out[id] = aff
	}
	return out
}
