package core

// WatchSignal 是从 WatchEvent 派生的瞬时观看信号：只派生、不存储，
// 一次观看事件产生一次，由 PreferenceLearner 消费。
type WatchSignal struct {
	// CompletionRate 完成度（0-1）
	CompletionRate float64

	// Rating 显式评分（0-10），HasRating 为 false 时忽略
	Rating    float64
	HasRating bool

	// IsRewatch 是否重复观看
	IsRewatch bool

	// DurationRatio 观看时长 / 总时长，封顶 1
	DurationRatio float64
}

// NewWatchSignal 从观看事件派生信号，所有字段均做边界收敛。
func NewWatchSignal(ev *WatchEvent) WatchSignal {
	s := WatchSignal{
		CompletionRate: clamp01(ev.CompletionRate),
		IsRewatch:      ev.IsRewatch,
	}
	if ev.Rating != nil {
		s.HasRating = true
		s.Rating = clampRange(*ev.Rating, 0, 10)
	}
	if ev.TotalMinutes > 0 {
		s.DurationRatio = clamp01(float64(ev.WatchedMinutes) / float64(ev.TotalMinutes))
	}
	return s
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
