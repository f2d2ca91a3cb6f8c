// Package vector 提供特征向量的纯数值原语：归一化、相似度、加权合成、TopK。
// 所有函数无状态、无副作用，向量维度不一致属于输入契约违规，返回领域错误。
package vector

import (
	"math"
	"sort"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
)

// ErrDimensionMismatch 表示两个向量维度不一致（配置错误，必须上抛）。
var ErrDimensionMismatch = core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: dimension mismatch")

// ErrEmptyInput 表示合成输入为空或向量数与权重数不一致。
var ErrEmptyInput = core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: empty input or vectors/weights length mismatch")

// L2Normalize 将向量归一化为单位模长，返回新切片。
// 零向量是合法的 "无信号" 哨兵值：模长为 0 时原样拷贝返回，绝不除零。
func L2Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Cosine 计算余弦相似度，范围 [-1, 1]。
// 任一向量为零向量时返回 0（绝不产生 NaN）；维度不一致返回 ErrDimensionMismatch。
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Euclidean 计算欧氏距离（≥0）；维度不一致返回 ErrDimensionMismatch。
func Euclidean(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}

// CombineWeighted 按权重合成多个向量：权重先归一化到和为 1，
// 再做加权逐元素求和，最后整体 L2 归一化。
// 输入为空、向量数与权重数不一致、或成员维度不一致时返回领域错误。
func CombineWeighted(vectors [][]float64, weights []float64) ([]float64, error) {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil, ErrEmptyInput
	}
	dim := len(vectors[0])
	for _, v := range vectors[1:] {
		if len(v) != dim {
			return nil, ErrDimensionMismatch
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	out := make([]float64, dim)
	for i, v := range vectors {
		w := weights[i]
		if total > 0 {
			w /= total
		} else {
			// 权重全为 0 时退化为等权平均
			w = 1 / float64(len(vectors))
		}
		for j, x := range v {
			out[j] += w * x
		}
	}
	return L2Normalize(out), nil
}

// Scored 是 TopK 的返回条目。
type Scored struct {
	Index int     // 候选在输入中的下标
	Score float64 // 与查询向量的余弦相似度
}

// TopK 对每个候选计算与 query 的余弦相似度，按分数降序取前 k 个。
// 使用稳定排序：同分候选保持输入顺序。任一候选维度不一致时整体报错。
func TopK(query []float64, candidates [][]float64, k int) ([]Scored, error) {
	scored := make([]Scored, 0, len(candidates))
	for i, c := range candidates {
		s, err := Cosine(query, c)
		if err != nil {
			return nil, err
		}
		scored = append(scored, Scored{Index: i, Score: s})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k >= 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
