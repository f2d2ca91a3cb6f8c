package core

import "context"

// EmbeddingService 是特征向量来源的领域接口。
//
// 实现可以是：
//   - embedding.Generator：本地确定性特征向量（默认）
//   - feast.Adapter：从 Feast 在线特征库读取预计算向量
//   - 任何外部 embedding 后端的适配器
//
// 降级契约："不可用" 用 (nil, nil) 表达，而不是错误：
// 学习链路遇到 nil 向量时原样返回当前画像（graceful no-op），
// 打分链路退化为中性分 0.5。只有真正的输入契约违规才返回 error。
type EmbeddingService interface {
	// EmbedContent 为内容生成特征向量；(nil, nil) 表示暂不可用
	EmbedContent(ctx context.Context, content *Content) ([]float64, error)

	// EmbedText 为自由文本（查询等）生成特征向量；(nil, nil) 表示暂不可用
	EmbedText(ctx context.Context, text string) ([]float64, error)
}
