package core

import "time"

// MediaType 是内容的媒体类型。
type MediaType string

const (
	MediaTypeMovie       MediaType = "movie"
	MediaTypeTV          MediaType = "tv"
	MediaTypeDocumentary MediaType = "documentary"
	MediaTypeOther       MediaType = "other"
)

// Content 是推荐链路中的统一内容承载结构：目录元数据 + 特征输入。
// 字段来源于外部内容目录（如 TMDB），本核心只读不写。
type Content struct {
	ID        string
	Title     string
	MediaType MediaType

	// GenreIDs 类型标签（目录侧的 genre id，如 28=action）
	GenreIDs []int

	// Popularity 目录侧热度分（未归一化，embedding 层负责归一化）
	Popularity float64

	// VoteAverage 目录侧评分（0-10）
	VoteAverage float64

	// ReleaseDate 上映/首播时间，零值表示未知
	ReleaseDate time.Time

	// Runtime 时长（分钟），0 表示未知
	Runtime int

	// Overview 简介文本，用于关键词特征
	Overview string
}

// NewContent 创建一个最小可用的内容对象。
func NewContent(id string, mediaType MediaType) *Content {
	return &Content{
		ID:        id,
		MediaType: mediaType,
	}
}

// KeywordText 返回用于关键词特征的自由文本（标题 + 简介）。
func (c *Content) KeywordText() string {
	if c.Title == "" {
		return c.Overview
	}
	if c.Overview == "" {
		return c.Title
	}
	return c.Title + " " + c.Overview
}

// WatchEvent 是一次观看行为的原始记录，由上层采集后传入学习链路。
type WatchEvent struct {
	UserID    string
	ContentID string

	// CompletionRate 完成度（0-1）
	CompletionRate float64

	// Rating 用户显式评分（0-10），nil 表示未评分
	Rating *float64

	// IsRewatch 是否重复观看
	IsRewatch bool

	// WatchedMinutes / TotalMinutes 用于计算时长占比信号
	WatchedMinutes int
	TotalMinutes   int

	// OccurredAt 事件时间
	OccurredAt time.Time
}
