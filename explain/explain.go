// Package explain 把打分因子转换为去重排序后的人类可读推荐理由与置信度。
//
// 每个打分策略产出带权因子（可追踪、可合并），解释层负责合并同类因子、
// 按权重与固定优先级排序、渲染为自然语言。
package explain

import (
	"fmt"
	"sort"
	"strings"
)

// Reason 是固定的因子标签集合。
const (
	ReasonSimilarTaste = "similar-to-watched"
	ReasonGenre        = "genre-match"
	ReasonActor        = "actor-match"
	ReasonDirector     = "director"
	ReasonTrending     = "trending"
	ReasonSocial       = "social"
	ReasonMood         = "mood"
	ReasonTemporal     = "temporal"
	ReasonRating       = "highly-rated"
	ReasonRegional     = "regional"
	ReasonNewRelease   = "new-release"
	ReasonCompletion   = "completion-pattern"
	ReasonGeneric      = "recommended"
)

// reasonPriority 是同权重因子的固定优先级（越靠前越优先）。
var reasonPriority = []string{
	ReasonSimilarTaste,
	ReasonGenre,
	ReasonActor,
	ReasonDirector,
	ReasonSocial,
	ReasonMood,
	ReasonRating,
	ReasonTrending,
	ReasonNewRelease,
	ReasonTemporal,
	ReasonCompletion,
	ReasonRegional,
	ReasonGeneric,
}

// Factor 是一条带权打分因子。
type Factor struct {
	Reason     string   // 固定 reason 标签
	Weight     float64  // [0,1]
	Detail     string   // 人类可读描述
	RelatedIDs []string // 相关内容 ID（合并时取并集并封顶）
}

// Explanation 是最终的推荐解释。
type Explanation struct {
	Text       string
	Confidence float64
	Factors    []Factor
}

// Generator 是解释生成器；零值不可用，用 NewGenerator 创建。
type Generator struct {
	// MaxFactors 解释最多保留的因子数
	MaxFactors int

	// MinWeight 低于此权重的因子被丢弃
	MinWeight float64

	// MaxRelatedIDs 合并后相关内容 ID 的上限
	MaxRelatedIDs int
}

// NewGenerator 创建默认参数的解释生成器（最多 3 个因子，权重下限 0.1）。
func NewGenerator() *Generator {
	return &Generator{
		MaxFactors:    3,
		MinWeight:     0.1,
		MaxRelatedIDs: 5,
	}
}

// AnalyzeContribution 把一个打分策略的贡献映射为一个或多个因子。
// 策略名是自由文本；未匹配的策略回退为通用因子。权重由 score 收敛到 [0,1]。
func (g *Generator) AnalyzeContribution(strategy string, score float64, relatedIDs []string) []Factor {
	w := clamp01(score)
	name := strings.ToLower(strings.TrimSpace(strategy))

	switch {
	case strings.Contains(name, "collaborative"):
		return []Factor{{Reason: ReasonSimilarTaste, Weight: w, Detail: "similar to titles you've watched", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "content"):
		// 内容策略拆分为类型与演员两个子因子
		return []Factor{
			{Reason: ReasonGenre, Weight: w, Detail: "matches your favorite genres", RelatedIDs: relatedIDs},
			{Reason: ReasonActor, Weight: w * 0.8, Detail: "features actors you watch often", RelatedIDs: relatedIDs},
		}
	case strings.Contains(name, "trending"):
		return []Factor{{Reason: ReasonTrending, Weight: w, Detail: "trending right now", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "social"):
		return []Factor{{Reason: ReasonSocial, Weight: w, Detail: "popular with people you watch with", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "mood"):
		return []Factor{{Reason: ReasonMood, Weight: w, Detail: "fits your current mood", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "temporal"):
		return []Factor{{Reason: ReasonTemporal, Weight: w, Detail: "fits your usual viewing time", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "rating"):
		return []Factor{{Reason: ReasonRating, Weight: w, Detail: "highly rated", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "regional"):
		return []Factor{{Reason: ReasonRegional, Weight: w, Detail: "popular in your region", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "new-release"), strings.Contains(name, "new_release"):
		return []Factor{{Reason: ReasonNewRelease, Weight: w, Detail: "recently released", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "completion"):
		return []Factor{{Reason: ReasonCompletion, Weight: w, Detail: "similar to what you finish", RelatedIDs: relatedIDs}}
	case strings.Contains(name, "director"):
		return []Factor{{Reason: ReasonDirector, Weight: w, Detail: "from a director you like", RelatedIDs: relatedIDs}}
	default:
		return []Factor{{Reason: ReasonGeneric, Weight: w, Detail: "recommended based on " + name, RelatedIDs: relatedIDs}}
	}
}

// Aggregate 合并同 reason 因子（权重取均值、相关 ID 取并集并封顶、保留
// 最详细的描述），按权重降序排序（同权重按固定优先级），丢弃低于
// MinWeight 的因子并截断到 MaxFactors。
func (g *Generator) Aggregate(factors []Factor) []Factor {
	if len(factors) == 0 {
		return nil
	}

	merged := make(map[string]*Factor)
	order := make([]string, 0)
	counts := make(map[string]int)

	for _, f := range factors {
		cur, ok := merged[f.Reason]
		if !ok {
			cp := f
			cp.RelatedIDs = dedupeIDs(nil, f.RelatedIDs, g.MaxRelatedIDs)
			merged[f.Reason] = &cp
			order = append(order, f.Reason)
			counts[f.Reason] = 1
			continue
		}
		n := counts[f.Reason]
		cur.Weight = (cur.Weight*float64(n) + f.Weight) / float64(n+1)
		counts[f.Reason] = n + 1
		cur.RelatedIDs = dedupeIDs(cur.RelatedIDs, f.RelatedIDs, g.MaxRelatedIDs)
		if len(f.Detail) > len(cur.Detail) {
			cur.Detail = f.Detail
		}
	}

	out := make([]Factor, 0, len(order))
	for _, reason := range order {
		f := *merged[reason]
		if f.Weight < g.MinWeight {
			continue
		}
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return priorityRank(out[i].Reason) < priorityRank(out[j].Reason)
	})

	if g.MaxFactors > 0 && len(out) > g.MaxFactors {
		out = out[:g.MaxFactors]
	}
	return out
}

// ToNaturalLanguage 渲染因子列表：首因子用固定模板生成主句
// （可带第一个相关内容），其余至多 2 个因子作为短从句追加。
// 空列表返回固定默认句。
func (g *Generator) ToNaturalLanguage(factors []Factor) string {
	if len(factors) == 0 {
		return "Recommended for you based on your viewing history."
	}

	var b strings.Builder
	b.WriteString(primarySentence(factors[0]))

	extra := factors[1:]
	if len(extra) > 2 {
		extra = extra[:2]
	}
	for i, f := range extra {
		if i == len(extra)-1 {
			b.WriteString(" and ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(clause(f))
	}
	b.WriteString(".")
	return b.String()
}

// Confidence 计算解释置信度：因子权重的自加权平均（Σw²/Σw）× 0.8，
// 加上多样性奖励 min(0.15, 0.05×不同 reason 数)，收敛到 [0.3, 0.95]。
// 空输入返回中性 0.5 —— 这是有意保留的特例，落在收敛区间之外。
func (g *Generator) Confidence(factors []Factor) float64 {
	if len(factors) == 0 {
		return 0.5
	}

	var sumW, sumW2 float64
	reasons := make(map[string]struct{})
	for _, f := range factors {
		sumW += f.Weight
		sumW2 += f.Weight * f.Weight
		reasons[f.Reason] = struct{}{}
	}

	var base float64
	if sumW > 0 {
		base = sumW2 / sumW * 0.8
	}
	diversity := 0.05 * float64(len(reasons))
	if diversity > 0.15 {
		diversity = 0.15
	}

	conf := base + diversity
	if conf < 0.3 {
		conf = 0.3
	}
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

// Explain 是一站式入口：分析→合并→渲染。
func (g *Generator) Explain(factors []Factor) *Explanation {
	top := g.Aggregate(factors)
	return &Explanation{
		Text:       g.ToNaturalLanguage(top),
		Confidence: g.Confidence(top),
		Factors:    top,
	}
}

func primarySentence(f Factor) string {
	templates := map[string]string{
		ReasonSimilarTaste: "Because it's similar to titles you've watched",
		ReasonGenre:        "Because it matches your favorite genres",
		ReasonActor:        "Because it features actors you watch often",
		ReasonDirector:     "Because it's from a director you like",
		ReasonTrending:     "Because it's trending right now",
		ReasonSocial:       "Because it's popular with people you watch with",
		ReasonMood:         "Because it fits your current mood",
		ReasonTemporal:     "Because it fits your usual viewing time",
		ReasonRating:       "Because it's highly rated",
		ReasonRegional:     "Because it's popular in your region",
		ReasonNewRelease:   "Because it's a recent release",
		ReasonCompletion:   "Because it's similar to shows you finish",
	}
	s, ok := templates[f.Reason]
	if !ok {
		s = "Recommended because it's " + f.Detail
	}
	if len(f.RelatedIDs) > 0 {
		s = fmt.Sprintf("%s (like %s)", s, f.RelatedIDs[0])
	}
	return s
}

func clause(f Factor) string {
	clauses := map[string]string{
		ReasonSimilarTaste: "it's similar to what you've watched",
		ReasonGenre:        "it matches your genres",
		ReasonActor:        "it stars familiar actors",
		ReasonDirector:     "you like the director",
		ReasonTrending:     "it's trending",
		ReasonSocial:       "friends are watching it",
		ReasonMood:         "it fits your mood",
		ReasonTemporal:     "it fits your schedule",
		ReasonRating:       "it's highly rated",
		ReasonRegional:     "it's popular near you",
		ReasonNewRelease:   "it just came out",
		ReasonCompletion:   "you tend to finish shows like it",
	}
	if s, ok := clauses[f.Reason]; ok {
		return s
	}
	return f.Detail
}

func priorityRank(reason string) int {
	for i, r := range reasonPriority {
		if r == reason {
			return i
		}
	}
	return len(reasonPriority)
}

func dedupeIDs(existing, incoming []string, max int) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range incoming {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
