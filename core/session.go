package core

import "time"

// SessionStatus 是群体投票会话的状态。
// 状态机：voting → decided，单向且终态；候选生成完成前短暂处于 waiting。
type SessionStatus string

const (
	SessionWaiting SessionStatus = "waiting"
	SessionVoting  SessionStatus = "voting"
	SessionDecided SessionStatus = "decided"
)

// GroupMember 是群体中的一名成员：画像 + 权重。
// Weight 默认为 1，可表达信任度/活跃度加权；质心计算用 weight × confidence。
type GroupMember struct {
	UserID      string
	Preferences *PreferenceProfile
	Weight      float64
}

// GroupCandidate 是会话中的一个候选内容及其打分状态。
type GroupCandidate struct {
	Content *Content

	// GroupScore 群体分（成员分均值）
	GroupScore float64

	// MemberScores 每个成员的相似度分，key: userID
	MemberScores map[string]float64

	// FairnessScore 公平分 = 最低成员分（min-satisfaction）：
	// 人人都还行的候选优于多数喜欢但有人厌恶的候选
	FairnessScore float64

	// Votes 投票记录，key: userID，value: 0-10（越界输入静默收敛）
	Votes map[string]int
}

// GroupSession 是一次群体决策会话。
type GroupSession struct {
	ID          string
	GroupID     string
	InitiatorID string
	MemberIDs   []string

	Candidates []*GroupCandidate

	Status SessionStatus

	// SelectedContentID 定格后的最终选择，空表示尚未决定
	SelectedContentID string

	// Context 会话级上下文（如候选过滤表达式 "filter"），可为 nil
	Context map[string]any

	CreatedAt time.Time
	DecidedAt *time.Time
}

// Clone 深拷贝候选，投票 map 与成员分 map 均独立。
func (c *GroupCandidate) Clone() *GroupCandidate {
	if c == nil {
		return nil
	}
	cp := &GroupCandidate{
		Content:       c.Content,
		GroupScore:    c.GroupScore,
		FairnessScore: c.FairnessScore,
		MemberScores:  make(map[string]float64, len(c.MemberScores)),
		Votes:         make(map[string]int, len(c.Votes)),
	}
	for k, v := range c.MemberScores {
		cp.MemberScores[k] = v
	}
	for k, v := range c.Votes {
		cp.Votes[k] = v
	}
	return cp
}

// Clone 深拷贝会话快照；引擎把活动会话留在内部，对外只交出快照，
// 调用方的读写不会与并发投票竞争。
func (s *GroupSession) Clone() *GroupSession {
	if s == nil {
		return nil
	}
	cp := &GroupSession{
		ID:                s.ID,
		GroupID:           s.GroupID,
		InitiatorID:       s.InitiatorID,
		Status:            s.Status,
		SelectedContentID: s.SelectedContentID,
		CreatedAt:         s.CreatedAt,
	}
	cp.MemberIDs = append([]string(nil), s.MemberIDs...)
	if s.Candidates != nil {
		cp.Candidates = make([]*GroupCandidate, len(s.Candidates))
		for i, c := range s.Candidates {
			cp.Candidates[i] = c.Clone()
		}
	}
	if s.Context != nil {
		cp.Context = make(map[string]any, len(s.Context))
		for k, v := range s.Context {
			cp.Context[k] = v
		}
	}
	if s.DecidedAt != nil {
		t := *s.DecidedAt
		cp.DecidedAt = &t
	}
	return cp
}

// FindCandidate 按内容 ID 查找候选，不存在时返回 nil。
func (s *GroupSession) FindCandidate(contentID string) *GroupCandidate {
	if s == nil {
		return nil
	}
	for _, c := range s.Candidates {
		if c.Content != nil && c.Content.ID == contentID {
			return c
		}
	}
	return nil
}

// HasMember 判断用户是否为会话成员（发起人恒为成员）。
func (s *GroupSession) HasMember(userID string) bool {
	if s == nil {
		return false
	}
	if s.InitiatorID == userID {
		return true
	}
	for _, id := range s.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
