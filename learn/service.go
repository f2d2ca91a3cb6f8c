package learn

import (
	"context"
	"time"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
	"github.com/fall-development-rob/hackathon-tv5-sub003/explain"
	"github.com/fall-development-rob/hackathon-tv5-sub003/pkg/vector"
)

// Personalizer 是面向单用户的个性化服务：学习、打分、查询向量、解释、导出与擦除。
//
// 依赖全部注入：
//   - store: 画像持久化（本核心自身不存储任何状态）
//   - embedder: 特征向量来源（本地 Generator 或外部服务适配器）
//
// 降级契约：embedder 返回 (nil, nil) 时，学习退化为 no-op（画像原样返回），
// 打分退化为中性 0.5；这些都不是错误。
type Personalizer struct {
	store     core.PreferenceStore
	embedder  core.EmbeddingService
	cfg       core.LearnConfig
	explainer *explain.Generator

	// now 可注入，测试时固定时钟
	now func() time.Time
}

// NewPersonalizer 创建个性化服务；cfg 为 nil 时使用默认学习配置。
func NewPersonalizer(store core.PreferenceStore, embedder core.EmbeddingService, cfg core.LearnConfig) *Personalizer {
	if cfg == nil {
		cfg = &core.DefaultLearnConfig{}
	}
	return &Personalizer{
		store:     store,
		embedder:  embedder,
		cfg:       cfg,
		explainer: explain.NewGenerator(),
		now:       time.Now,
	}
}

// GetPreferences 读取用户画像；画像不存在时返回冷启动画像（不落库）。
func (p *Personalizer) GetPreferences(ctx context.Context, userID string) (*core.PreferenceProfile, error) {
	profile, err := p.store.Get(ctx, userID)
	if err != nil {
		if core.IsProfileNotFound(err) {
			return core.NewPreferenceProfile(userID), nil
		}
		return nil, err
	}
	return profile, nil
}

// LearnFromWatchEvent 消费一次观看事件：生成内容向量，按信号强度自适应
// 更新画像（向量、置信度、类型亲和度）并持久化，返回更新后的画像。
//
// embedding 不可用时画像原样返回（graceful no-op，不报错、不落库）。
func (p *Personalizer) LearnFromWatchEvent(ctx context.Context, ev *core.WatchEvent, content *core.Content) (*core.PreferenceProfile, error) {
	profile, err := p.GetPreferences(ctx, ev.UserID)
	if err != nil {
		return nil, err
	}

	contentVec, err := p.embedder.EmbedContent(ctx, content)
	if err != nil {
		return nil, err
	}
	if contentVec == nil {
		// 降级：embedding 不可用，本次事件不产生任何更新
		return profile, nil
	}

	signal := core.NewWatchSignal(ev)
	strength := SignalStrength(signal)
	rate := LearningRate(p.cfg, profile.Confidence, strength)

	updated := profile.Clone()
	updated.Vector = UpdateVector(profile.Vector, contentVec, rate)
	updated.Confidence = UpdateConfidence(p.cfg, profile.Confidence, strength)
	if content != nil {
		updated.GenreAffinities = UpdateGenreAffinities(profile.GenreAffinities, content.GenreIDs, strength)
	}
	updated.UpdatedAt = p.now()

	if err := p.store.Put(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// ScoreContent 计算内容与用户口味的匹配分（余弦相似度）。
// 冷启动用户或 embedding 不可用时返回中性分 0.5。
func (p *Personalizer) ScoreContent(ctx context.Context, userID string, content *core.Content) (float64, error) {
	profile, err := p.GetPreferences(ctx, userID)
	if err != nil {
		return 0, err
	}
	if profile.IsColdStart() {
		return 0.5, nil
	}

	contentVec, err := p.embedder.EmbedContent(ctx, content)
	if err != nil {
		return 0, err
	}
	if contentVec == nil {
		return 0.5, nil
	}

	return vector.Cosine(profile.Vector, contentVec)
}

// PersonalizedQueryEmbedding 把查询向量与用户口味向量按 queryWeight 合成：
// 结果 = combine([taste, query], [1-queryWeight, queryWeight])。
// 冷启动用户直接返回查询向量；查询向量不可用时返回口味向量；
// 两者都缺失时返回 nil（调用方按 "无信号" 处理）。
func (p *Personalizer) PersonalizedQueryEmbedding(ctx context.Context, userID, queryText string, queryWeight float64) ([]float64, error) {
	if queryWeight < 0 {
		queryWeight = 0
	}
	if queryWeight > 1 {
		queryWeight = 1
	}

	profile, err := p.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	queryVec, err := p.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, err
	}

	if profile.IsColdStart() {
		return queryVec, nil
	}
	if queryVec == nil {
		out := make([]float64, len(profile.Vector))
		copy(out, profile.Vector)
		return out, nil
	}

	return vector.CombineWeighted(
		[][]float64{profile.Vector, queryVec},
		[]float64{1 - queryWeight, queryWeight},
	)
}

// ExplainRecommendation 为一条推荐生成人类可读解释与置信度。
func (p *Personalizer) ExplainRecommendation(ctx context.Context, userID string, content *core.Content) (*explain.Explanation, error) {
	score, err := p.ScoreContent(ctx, userID, content)
	if err != nil {
		return nil, err
	}

	profile, err := p.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	var factors []explain.Factor
	if !profile.IsColdStart() {
		factors = append(factors, explain.Factor{
			Reason: explain.ReasonSimilarTaste,
			Weight: score,
			Detail: "similar to titles you've watched",
		})
	}

	if content != nil {
		// 类型因子：观看内容 genre 的平均亲和度
		if aff, ok := sharedGenreAffinity(profile, content.GenreIDs); ok {
			factors = append(factors, explain.Factor{
				Reason: explain.ReasonGenre,
				Weight: aff,
				Detail: "matches your favorite genres",
			})
		}
		if content.VoteAverage >= 7 {
			factors = append(factors, explain.Factor{
				Reason: explain.ReasonRating,
				Weight: content.VoteAverage / 10,
				Detail: "highly rated",
			})
		}
		if !content.ReleaseDate.IsZero() && p.now().Sub(content.ReleaseDate) < 365*24*time.Hour {
			factors = append(factors, explain.Factor{
				Reason: explain.ReasonNewRelease,
				Weight: 0.6,
				Detail: "recently released",
			})
		}
	}

	return p.explainer.Explain(factors), nil
}

// TopGenres 返回用户亲和度最高的 n 个类型。
func (p *Personalizer) TopGenres(ctx context.Context, userID string, n int) ([]core.GenreAffinity, error) {
	profile, err := p.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.TopGenres(n), nil
}

// ExportPreferences 导出隐私可携带的画像快照（向量刻意不含在内）。
func (p *Personalizer) ExportPreferences(ctx context.Context, userID string) (*core.PreferenceExport, error) {
	profile, err := p.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.Export(), nil
}

// DeletePreferences 隐私擦除：删除存量画像并使向量缓存失效；
// 用户回到冷启动状态。
func (p *Personalizer) DeletePreferences(ctx context.Context, userID string) error {
	if err := p.store.Delete(ctx, userID); err != nil {
		return err
	}
	if inv, ok := p.embedder.(interface{ InvalidateCache() }); ok {
		inv.InvalidateCache()
	}
	return nil
}

// sharedGenreAffinity 计算内容 genre 在画像中的平均亲和度；
// 没有任何已知 genre 时返回 (0, false)。
func sharedGenreAffinity(profile *core.PreferenceProfile, genreIDs []int) (float64, bool) {
	if profile == nil || len(genreIDs) == 0 {
		return 0, false
	}
	var sum float64
	n := 0
	for _, id := range genreIDs {
		if aff, ok := profile.GenreAffinities[id]; ok {
			sum += aff
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
