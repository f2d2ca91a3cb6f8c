// Package feast 提供基于 Feast Feature Store 的预计算向量源。
//
// 两层结构：
//   - Client（本文件）：在线特征获取的窄接口，gRPC 实现见 grpc_client.go
//   - Adapter（adapter.go）：把 Client 适配成 core.EmbeddingService，
//     在线存储里的预计算内容向量优先，未命中时回退到本地生成器
//
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征获取的客户端接口。
// 只保留本库实际调用的最小方法集，实现可替换。
type Client interface {
	// GetOnlineFeatures 获取在线特征（实时打分用）
	//
	// 参数示例：
	//   - Features: ["content_embeddings:vector"]
	//   - EntityRows: [{"content_id": "603"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["content_embeddings:vector"]
	Features []string

	// EntityRows 实体行，例如 [{"content_id": "603"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，缺省用客户端配置）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 每个实体行对应一个结果
	FeatureVectors []FeatureVector
}

// FeatureVector 是单个实体的特征取值。
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置
type ClientConfig struct {
	// Project 项目名称
	Project string

	// Timeout 单次请求超时
	Timeout time.Duration

	// StaticToken 静态 Token 认证（可选）
	StaticToken string
}

// WithTimeout 设置超时时间。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) { c.Timeout = timeout }
}

// WithStaticToken 设置静态 Token 认证。
func WithStaticToken(token string) ClientOption {
	return func(c *ClientConfig) { c.StaticToken = token }
}
