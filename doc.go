// Package taste 是一个个性化与群体共识打分引擎。
//
// 设计要点：
// - 向量优先: 观看信号 → 口味向量（自适应 EMA），内容属性 → 特征向量（四段加权拼接）
// - 有界数值: 置信度、学习率、亲和度、打分全部落在文档化的闭区间内
// - 依赖注入: 画像存储 / 向量源 / 社交信号全部是窄接口，core 自身不持久化任何状态
package taste

import "github.com/fall-development-rob/hackathon-tv5-sub003/core"

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type Content = core.Content
type WatchEvent = core.WatchEvent
type PreferenceProfile = core.PreferenceProfile
type GroupSession = core.GroupSession
type GroupCandidate = core.GroupCandidate
type GroupMember = core.GroupMember

type PreferenceStore = core.PreferenceStore
type EmbeddingService = core.EmbeddingService
type SocialGraphStore = core.SocialGraphStore

const (
	MediaTypeMovie       = core.MediaTypeMovie
	MediaTypeTV          = core.MediaTypeTV
	MediaTypeDocumentary = core.MediaTypeDocumentary
	MediaTypeOther       = core.MediaTypeOther
)
