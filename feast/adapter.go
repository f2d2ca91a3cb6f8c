package feast

import (
	"context"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
)

// DefaultVectorFeature 是预计算内容向量的默认特征名。
const DefaultVectorFeature = "content_embeddings:vector"

// Adapter 把 Feast Client 适配成 core.EmbeddingService：
// 在线存储中的预计算内容向量优先；未命中或 Feast 出错时回退到
// fallback（通常是本地 embedding.Generator），没有 fallback 时
// 返回 (nil, nil)，消费方走中性兜底。
//
// Feast 的故障被降级吞掉而不是上抛：预计算向量是质量增强，
// 不是打分链路的可用性依赖。
type Adapter struct {
	client   Client
	fallback core.EmbeddingService

	// feature 向量特征名，默认 DefaultVectorFeature
	feature string

	// entityKey 实体键名，默认 "content_id"
	entityKey string
}

// AdapterOption 配置 Adapter。
type AdapterOption func(*Adapter)

// WithFallback 注入回退向量源。
func WithFallback(fallback core.EmbeddingService) AdapterOption {
	return func(a *Adapter) { a.fallback = fallback }
}

// WithVectorFeature 覆盖向量特征名。
func WithVectorFeature(feature string) AdapterOption {
	return func(a *Adapter) { a.feature = feature }
}

// WithEntityKey 覆盖实体键名。
func WithEntityKey(key string) AdapterOption {
	return func(a *Adapter) { a.entityKey = key }
}

// NewAdapter 创建 Feast embedding 适配器。
func NewAdapter(client Client, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		client:    client,
		feature:   DefaultVectorFeature,
		entityKey: "content_id",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EmbedContent 返回内容的预计算向量；未命中时走 fallback。
func (a *Adapter) EmbedContent(ctx context.Context, content *core.Content) ([]float64, error) {
	if content == nil {
		return nil, nil
	}

	if vec := a.lookup(ctx, content.ID); vec != nil {
		return vec, nil
	}

	if a.fallback != nil {
		return a.fallback.EmbedContent(ctx, content)
	}
	return nil, nil
}

// EmbedText 文本查询向量不做预计算，直接走 fallback。
func (a *Adapter) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if a.fallback != nil {
		return a.fallback.EmbedText(ctx, text)
	}
	return nil, nil
}

// lookup 从 Feast 在线存储取一条内容的预计算向量，任何故障都按未命中处理。
func (a *Adapter) lookup(ctx context.Context, contentID string) []float64 {
	if a.client == nil || contentID == "" {
		return nil
	}

	resp, err := a.client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{a.feature},
		EntityRows: []map[string]interface{}{{a.entityKey: contentID}},
	})
	if err != nil || len(resp.FeatureVectors) == 0 {
		return nil
	}

	vec, _ := resp.FeatureVectors[0].Values[a.feature].([]float64)
	if len(vec) == 0 {
		return nil
	}
	return vec
}

var _ core.EmbeddingService = (*Adapter)(nil)
