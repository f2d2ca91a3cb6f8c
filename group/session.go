package group

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
	"github.com/fall-development-rob/hackathon-tv5-sub003/explain"
	"github.com/fall-development-rob/hackathon-tv5-sub003/pkg/dsl"
)

// 最终分中投票与群体匹配分的权重：显式投票主导，群体分用于打破近平局。
const (
	voteWeight  = 0.7
	scoreWeight = 0.3
)

// Engine 是群体共识引擎：会话由内存 map 持有，mutex 保护；
// 画像/社交存储与 embedding 源全部注入。
type Engine struct {
	store    core.PreferenceStore
	embedder core.EmbeddingService

	// social 可选；finalize 时在赢家投票人之间记录两两社交信号
	social core.SocialGraphStore

	explainer *explain.Generator

	// maxConcurrent 候选打分的最大并发数（<=0 表示不限）
	maxConcurrent int

	mu       sync.RWMutex
	sessions map[string]*core.GroupSession

	seq uint64
	now func() time.Time
}

// Option 配置 Engine。
type Option func(*Engine)

// WithSocialGraph 注入社交存储；finalize 时强化赢家投票人之间的连接信号。
func WithSocialGraph(social core.SocialGraphStore) Option {
	return func(e *Engine) { e.social = social }
}

// WithMaxConcurrent 限制候选打分的并发数。
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) { e.maxConcurrent = n }
}

// NewEngine 创建群体共识引擎。
func NewEngine(store core.PreferenceStore, embedder core.EmbeddingService, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		embedder:      embedder,
		explainer:     explain.NewGenerator(),
		maxConcurrent: 8,
		sessions:      make(map[string]*core.GroupSession),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateSession 创建一次群体决策会话：加载成员画像，按会话上下文中的
// CEL 过滤表达式（key "filter"）筛选候选池，并发为每个候选打群体分，
// 会话进入 voting 状态。
//
// pool 为空或全部被过滤掉时会话仍然创建（候选为空，finalize 返回 nil）。
// 返回的是快照；活动会话由引擎内部持有，后续状态经 GetSession 读取。
func (e *Engine) CreateSession(ctx context.Context, groupID, initiatorID string, memberIDs []string, pool []*core.Content, sessionCtx map[string]any) (*core.GroupSession, error) {
	session := &core.GroupSession{
		ID:          e.nextID(),
		GroupID:     groupID,
		InitiatorID: initiatorID,
		MemberIDs:   memberIDs,
		Status:      core.SessionWaiting,
		Context:     sessionCtx,
		CreatedAt:   e.now(),
	}

	filtered, err := e.filterPool(pool, session)
	if err != nil {
		return nil, err
	}

	members, err := e.loadMembers(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	candidates, err := e.scoreCandidates(ctx, members, filtered)
	if err != nil {
		return nil, err
	}
	session.Candidates = candidates
	session.Status = core.SessionVoting

	e.mu.Lock()
	e.sessions[session.ID] = session
	e.mu.Unlock()

	return session.Clone(), nil
}

// filterPool 应用会话上下文中的 CEL 候选过滤表达式。
func (e *Engine) filterPool(pool []*core.Content, session *core.GroupSession) ([]*core.Content, error) {
	expr, _ := session.Context["filter"].(string)
	if expr == "" {
		return pool, nil
	}

	filter, err := dsl.NewFilter(expr)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Content, 0, len(pool))
	for _, c := range pool {
		ok, err := filter.Matches(c, session)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// SubmitVote 记录一票。会话不存在、已定格或 contentID 不在候选中时
// 返回 false（不报错）；越界分值静默收敛到 [0,10]。
func (e *Engine) SubmitVote(sessionID, userID, contentID string, score int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[sessionID]
	if !ok || session.Status == core.SessionDecided {
		return false
	}
	cand := session.FindCandidate(contentID)
	if cand == nil {
		return false
	}

	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	cand.Votes[userID] = score
	return true
}

// FinalizeSession 定格会话：未知会话返回 nil（不报错）；已定格会话
// 幂等返回已选候选。否则按 0.7×(票和/10) + 0.3×groupScore 取最高分
// 候选，置 decided、SelectedContentID 与 DecidedAt，并在赢家投票人
// 之间两两记录社交连接信号。
func (e *Engine) FinalizeSession(ctx context.Context, sessionID string) (*core.GroupCandidate, error) {
	e.mu.Lock()

	session, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return nil, nil
	}
	if session.Status == core.SessionDecided {
		cand := session.FindCandidate(session.SelectedContentID).Clone()
		e.mu.Unlock()
		return cand, nil
	}

	winner := pickWinner(session.Candidates)

	decidedAt := e.now()
	session.Status = core.SessionDecided
	session.DecidedAt = &decidedAt
	if winner != nil && winner.Content != nil {
		session.SelectedContentID = winner.Content.ID
	}

	var voters []string
	if winner != nil {
		for userID := range winner.Votes {
			voters = append(voters, userID)
		}
	}
	winner = winner.Clone()
	e.mu.Unlock()

	// fire-and-forget 信号增强：失败只影响信号质量，不影响已定格的决策
	if e.social != nil {
		for i := 0; i < len(voters); i++ {
			for j := i + 1; j < len(voters); j++ {
				_ = e.social.RecordConnection(ctx, voters[i], voters[j])
			}
		}
	}
	return winner, nil
}

// pickWinner 按 voteWeight×(票和/10) + scoreWeight×groupScore 取最高分候选。
func pickWinner(candidates []*core.GroupCandidate) *core.GroupCandidate {
	var winner *core.GroupCandidate
	best := -1.0
	for _, cand := range candidates {
		voteSum := 0
		for _, v := range cand.Votes {
			voteSum += v
		}
		aggregate := voteWeight*(float64(voteSum)/10) + scoreWeight*cand.GroupScore
		if aggregate > best {
			best = aggregate
			winner = cand
		}
	}
	return winner
}

// GetSession 按 ID 查会话快照，不存在时返回 nil。
func (e *Engine) GetSession(sessionID string) *core.GroupSession {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessions[sessionID].Clone()
}

// GetUserSessions 返回用户参与（含发起）的全部会话快照。
func (e *Engine) GetUserSessions(userID string) []*core.GroupSession {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []*core.GroupSession
	for _, s := range e.sessions {
		if s.HasMember(userID) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// CleanupSessions 删除创建时间早于 now-maxAge 的会话，返回删除数量。
// maxAge <= 0 时为 no-op。
func (e *Engine) CleanupSessions(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-maxAge)
	removed := 0
	for id, s := range e.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(e.sessions, id)
			removed++
		}
	}
	return removed
}

// GetExplanation 为会话中的一个候选生成解释：群体匹配、公平性与
// 票数证据汇成因子。候选不存在时返回空因子的默认解释。
func (e *Engine) GetExplanation(sessionID, contentID string) *explain.Explanation {
	e.mu.RLock()
	session := e.sessions[sessionID]
	var cand *core.GroupCandidate
	if session != nil {
		cand = session.FindCandidate(contentID)
	}
	e.mu.RUnlock()

	if cand == nil {
		return e.explainer.Explain(nil)
	}

	factors := []explain.Factor{
		{
			Reason: explain.ReasonSocial,
			Weight: cand.GroupScore,
			Detail: "a good fit for the whole group",
		},
	}
	if cand.FairnessScore >= 0.4 {
		factors = append(factors, explain.Factor{
			Reason: explain.ReasonSimilarTaste,
			Weight: cand.FairnessScore,
			Detail: "nobody in the group dislikes it",
		})
	}
	if len(cand.Votes) > 0 {
		sum := 0
		for _, v := range cand.Votes {
			sum += v
		}
		avg := float64(sum) / float64(len(cand.Votes)) / 10
		factors = append(factors, explain.Factor{
			Reason: explain.ReasonRating,
			Weight: avg,
			Detail: fmt.Sprintf("voted for by %d member(s)", len(cand.Votes)),
		})
	}
	return e.explainer.Explain(factors)
}

func (e *Engine) nextID() string {
	n := atomic.AddUint64(&e.seq, 1)
	return fmt.Sprintf("gs-%d-%d", e.now().UnixNano(), n)
}
