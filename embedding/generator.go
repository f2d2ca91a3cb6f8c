// Package embedding 将内容/偏好/查询属性确定性地映射为定长 L2 归一化特征向量。
//
// 每个向量是四段加权子向量的拼接：genre / type / metadata / keyword，
// 拼接后整体 L2 归一化。所有输入路径都有兜底（默认 genre 向量、零关键词
// 子向量、缺省数值字段），因此生成本身永不失败。
// 结果通过注入的 cache.Cache 做 memoize，key 为内容 ID 或属性的规范序列化。
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fall-development-rob/hackathon-tv5-sub003/cache"
	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
	"github.com/fall-development-rob/hackathon-tv5-sub003/pkg/vector"
)

// Generator 是特征向量生成器。配置（含 genre 向量表）构造时注入，运行期只读。
type Generator struct {
	cfg   *Config
	cache *cache.Cache[string, []float64]

	// now 可注入，测试时固定时钟
	now func() time.Time
}

// NewGenerator 创建生成器；cfg 为 nil 时用 DefaultConfig，
// memo 为 nil 时内建一个容量 1000 的缓存。
func NewGenerator(cfg *Config, memo *cache.Cache[string, []float64]) *Generator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if memo == nil {
		memo = cache.New[string, []float64](1000)
	}
	return &Generator{
		cfg:   cfg,
		cache: memo,
		now:   time.Now,
	}
}

// Dim 返回生成向量的维度。
func (g *Generator) Dim() int { return g.cfg.Dim() }

// CacheStats 返回 memoize 缓存的统计快照。
func (g *Generator) CacheStats() cache.Stats { return g.cache.GetStats() }

// InvalidateCache 清空 memoize 缓存（配置热替换或隐私擦除后调用）。
func (g *Generator) InvalidateCache() { g.cache.Clear() }

// EmbedContent 为内容生成特征向量，按内容 ID memoize。
// content 为 nil 时返回 (nil, nil)，与外部 embedding 服务的 "不可用" 契约一致。
func (g *Generator) EmbedContent(_ context.Context, content *core.Content) ([]float64, error) {
	if content == nil {
		return nil, nil
	}
	key := "content:" + string(content.MediaType) + ":" + content.ID
	v := g.cache.GetOrCompute(key, func() []float64 {
		return g.compose(
			g.genreSubvector(content.GenreIDs),
			g.typeSubvector(content.MediaType),
			g.metadataSubvector(content),
			keywordBuckets(content.KeywordText(), g.cfg.KeywordDim),
		)
	})
	return cloneVector(v), nil
}

// EmbedPreferences 为用户画像生成特征向量，按画像属性的规范序列化 memoize。
// 冷启动画像（无亲和度、零置信度）也会得到一个确定的兜底向量。
func (g *Generator) EmbedPreferences(_ context.Context, prefs *core.PreferenceProfile) ([]float64, error) {
	if prefs == nil {
		return nil, nil
	}
	key := preferencesCacheKey(prefs)
	v := g.cache.GetOrCompute(key, func() []float64 {
		return g.compose(
			g.affinitySubvector(prefs.GenreAffinities),
			g.neutralTypeSubvector(),
			g.neutralMetadataSubvector(prefs.Confidence),
			keywordBuckets(moodText(prefs.MoodMappings), g.cfg.KeywordDim),
		)
	})
	return cloneVector(v), nil
}

// EmbedText 为自由文本生成特征向量（core.EmbeddingService 接口）。
func (g *Generator) EmbedText(ctx context.Context, text string) ([]float64, error) {
	return g.EmbedQueryState(ctx, text, nil)
}

// EmbedQueryState 为查询状态（文本 + 可选上下文）生成特征向量。
// state 支持的键："genre_ids" []int 与 "media_type" string，其余忽略。
func (g *Generator) EmbedQueryState(_ context.Context, queryText string, state map[string]any) ([]float64, error) {
	key := queryCacheKey(queryText, state)
	v := g.cache.GetOrCompute(key, func() []float64 {
		genreIDs := stateGenreIDs(state)
		mediaType := core.MediaTypeOther
		if mt, ok := state["media_type"].(string); ok && mt != "" {
			mediaType = core.MediaType(mt)
		}
		return g.compose(
			g.genreSubvector(genreIDs),
			g.typeSubvector(mediaType),
			g.neutralMetadataSubvector(0.5),
			keywordBuckets(queryText, g.cfg.KeywordDim),
		)
	})
	return cloneVector(v), nil
}

// compose 按配置权重缩放四段子向量，拼接后整体 L2 归一化。
func (g *Generator) compose(genre, typ, meta, kw []float64) []float64 {
	out := make([]float64, 0, g.cfg.Dim())
	for _, x := range genre {
		out = append(out, x*g.cfg.GenreWeight)
	}
	for _, x := range typ {
		out = append(out, x*g.cfg.TypeWeight)
	}
	for _, x := range meta {
		out = append(out, x*g.cfg.MetadataWeight)
	}
	for _, x := range kw {
		out = append(out, x*g.cfg.KeywordWeight)
	}
	return vector.L2Normalize(out)
}

// genreSubvector 取内容所有 genre 方向向量的平均；未知/空列表回退默认向量。
func (g *Generator) genreSubvector(genreIDs []int) []float64 {
	out := make([]float64, g.cfg.GenreDim)
	matched := 0
	for _, id := range genreIDs {
		gv, ok := g.cfg.GenreVectors[id]
		if !ok {
			continue
		}
		for i, x := range gv {
			out[i] += x
		}
		matched++
	}
	if matched == 0 {
		copy(out, g.cfg.DefaultGenreVector)
		return out
	}
	for i := range out {
		out[i] /= float64(matched)
	}
	return out
}

// affinitySubvector 按亲和度加权平均 genre 方向向量（画像侧的 genre 子向量）。
func (g *Generator) affinitySubvector(affinities map[int]float64) []float64 {
	out := make([]float64, g.cfg.GenreDim)
	var total float64
	for id, aff := range affinities {
		gv, ok := g.cfg.GenreVectors[id]
		if !ok || aff <= 0 {
			continue
		}
		for i, x := range gv {
			out[i] += aff * x
		}
		total += aff
	}
	if total == 0 {
		copy(out, g.cfg.DefaultGenreVector)
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// typeSubvector 是类别的 one-hot 式编码：主槽 1.0，
// 末槽共享分量 0.25 避免类别之间完全正交。
func (g *Generator) typeSubvector(mediaType core.MediaType) []float64 {
	out := make([]float64, g.cfg.TypeDim)
	slot := 3
	switch mediaType {
	case core.MediaTypeMovie:
		slot = 0
	case core.MediaTypeTV:
		slot = 1
	case core.MediaTypeDocumentary:
		slot = 2
	}
	out[slot] = 1.0
	out[g.cfg.TypeDim-1] = 0.25
	return out
}

// neutralTypeSubvector 是画像侧的类别子向量：不偏向任一类别。
func (g *Generator) neutralTypeSubvector() []float64 {
	out := make([]float64, g.cfg.TypeDim)
	for i := 0; i < 4 && i < g.cfg.TypeDim; i++ {
		out[i] = 0.25
	}
	out[g.cfg.TypeDim-1] = 0.25
	return out
}

// metadataSubvector 编码热度/评分/新旧度/时长，各自带一个非线性伴随分量。
// 缺省字段（零值）自然得到 0 分量。
func (g *Generator) metadataSubvector(content *core.Content) []float64 {
	out := make([]float64, g.cfg.MetadataDim)

	// 热度：线性封顶 + 平方根伴随（压缩长尾）
	pop := math.Min(content.Popularity/g.cfg.PopularityScale, 1)
	if pop < 0 {
		pop = 0
	}
	out[0] = pop
	out[1] = math.Sqrt(pop)

	// 评分：线性 0-1 + rating^1.5 强调高分
	rating := math.Min(math.Max(content.VoteAverage/10, 0), 1)
	out[2] = rating
	out[3] = math.Pow(rating, 1.5)

	// 新旧度：horizon 年内线性衰减到 0 + 更平缓的幂衰减伴随
	if !content.ReleaseDate.IsZero() {
		ageYears := g.now().Sub(content.ReleaseDate).Hours() / (24 * 365.25)
		recency := 1 - ageYears/g.cfg.RecencyHorizonYrs
		if recency < 0 {
			recency = 0
		}
		if recency > 1 {
			recency = 1
		}
		out[4] = recency
		out[5] = math.Pow(recency, 0.5)
	}

	// 时长：线性封顶 + 对数伴随
	if content.Runtime > 0 {
		rt := math.Min(float64(content.Runtime)/g.cfg.RuntimeScaleMin, 1)
		out[6] = rt
		out[7] = math.Log1p(float64(content.Runtime)) / math.Log1p(g.cfg.RuntimeScaleMin)
		if out[7] > 1 {
			out[7] = 1
		}
	}

	return out
}

// neutralMetadataSubvector 是无内容元数据时的中点子向量，
// confidence 写入首分量，使不同置信度的画像向量可区分。
func (g *Generator) neutralMetadataSubvector(confidence float64) []float64 {
	out := make([]float64, g.cfg.MetadataDim)
	for i := range out {
		out[i] = 0.5
	}
	out[0] = math.Min(math.Max(confidence, 0), 1)
	return out
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// preferencesCacheKey 生成画像属性的规范序列化 key：
// genre id 升序 + 亲和度（4 位小数）+ 置信度。
func preferencesCacheKey(prefs *core.PreferenceProfile) string {
	ids := make([]int, 0, len(prefs.GenreAffinities))
	for id := range prefs.GenreAffinities {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString("prefs:")
	fmt.Fprintf(&b, "c=%.4f", prefs.Confidence)
	for _, id := range ids {
		fmt.Fprintf(&b, "|%d=%.4f", id, prefs.GenreAffinities[id])
	}
	moods := make([]string, 0, len(prefs.MoodMappings))
	for m := range prefs.MoodMappings {
		moods = append(moods, m)
	}
	sort.Strings(moods)
	for _, m := range moods {
		fmt.Fprintf(&b, "|m:%s=%.4f", m, prefs.MoodMappings[m])
	}
	return b.String()
}

// queryCacheKey 生成查询状态的规范序列化 key。
func queryCacheKey(queryText string, state map[string]any) string {
	var b strings.Builder
	b.WriteString("query:")
	b.WriteString(strings.ToLower(strings.TrimSpace(queryText)))
	if mt, ok := state["media_type"].(string); ok {
		b.WriteString("|t=")
		b.WriteString(mt)
	}
	ids := stateGenreIDs(state)
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "|g=%d", id)
	}
	return b.String()
}

// stateGenreIDs 从查询上下文提取 genre id 列表，兼容 []int 与 []any。
func stateGenreIDs(state map[string]any) []int {
	if state == nil {
		return nil
	}
	switch v := state["genre_ids"].(type) {
	case []int:
		out := make([]int, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]int, 0, len(v))
		for _, e := range v {
			switch n := e.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			}
		}
		return out
	default:
		return nil
	}
}

// moodText 把情绪映射的键拼成关键词文本（权重 >0 的才参与）。
func moodText(moods map[string]float64) string {
	if len(moods) == 0 {
		return ""
	}
	keys := make([]string, 0, len(moods))
	for k, w := range moods {
		if w > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, " ")
}

// Generator 满足 core.EmbeddingService，可直接作为默认的向量来源注入。
var _ core.EmbeddingService = (*Generator)(nil)
