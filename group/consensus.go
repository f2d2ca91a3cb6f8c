// Package group 实现群体共识：多用户画像质心、候选内容群体打分
// （含公平性 min-satisfaction）、投票会话状态机与用户相似度计算。
package group

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
	"github.com/fall-development-rob/hackathon-tv5-sub003/pkg/vector"
)

// neutralScore 是冷启动/无向量成员的兜底分。
const neutralScore = 0.5

// Centroid 计算群体质心：过滤掉没有向量的成员，对剩余成员的向量按
// weight × confidence 加权平均并 L2 归一化。高置信度成员对质心的
// 牵引力更强。没有任何成员带向量时返回 nil（absent，不是错误）。
func Centroid(members []core.GroupMember) ([]float64, error) {
	var (
		vecs    [][]float64
		weights []float64
	)
	for _, m := range members {
		if m.Preferences == nil || m.Preferences.IsColdStart() {
			continue
		}
		w := m.Weight
		if w <= 0 {
			w = 1
		}
		vecs = append(vecs, m.Preferences.Vector)
		weights = append(weights, w*m.Preferences.Confidence)
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	return vector.CombineWeighted(vecs, weights)
}

// memberScore 计算单个成员对一条内容向量的匹配分：
// 成员无向量时返回中性 0.5，否则为余弦相似度。
// 维度不一致是输入契约违规，向上抛。
func memberScore(profile *core.PreferenceProfile, contentVec []float64) (float64, error) {
	if profile == nil || profile.IsColdStart() {
		return neutralScore, nil
	}
	return vector.Cosine(profile.Vector, contentVec)
}

// ScoreCandidate 为一条内容计算群体打分：
//   - MemberScores: 每个成员的相似度分（无向量成员记中性 0.5）
//   - GroupScore: 成员分均值
//   - FairnessScore: 最低成员分（min-satisfaction）
//
// contentVec 为 nil 时所有成员记中性 0.5（embedding 不可用不是错误）。
func ScoreCandidate(content *core.Content, contentVec []float64, members []core.GroupMember) (*core.GroupCandidate, error) {
	cand := &core.GroupCandidate{
		Content:      content,
		MemberScores: make(map[string]float64, len(members)),
		Votes:        make(map[string]int),
	}

	var sum float64
	min := 1.0
	for _, m := range members {
		score := neutralScore
		if contentVec != nil {
			s, err := memberScore(m.Preferences, contentVec)
			if err != nil {
				return nil, err
			}
			score = s
		}
		cand.MemberScores[m.UserID] = score
		sum += score
		if score < min {
			min = score
		}
	}

	if len(members) > 0 {
		cand.GroupScore = sum / float64(len(members))
		cand.FairnessScore = min
	}
	return cand, nil
}

// scoreCandidates 并发为每个候选内容生成向量并打群体分，保持输入顺序。
// 并发模型：errgroup + semaphore 限流；单条内容 embedding 不可用时该候选
// 全员记中性分，不中断其他候选。
func (e *Engine) scoreCandidates(ctx context.Context, members []core.GroupMember, pool []*core.Content) ([]*core.GroupCandidate, error) {
	out := make([]*core.GroupCandidate, len(pool))

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)

	maxConcurrent := e.maxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = len(pool)
	}
	sem := make(chan struct{}, maxConcurrent)

	for i, content := range pool {
		i, content := i, content
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			contentVec, err := e.embedder.EmbedContent(egCtx, content)
			if err != nil {
				return err
			}
			cand, err := ScoreCandidate(content, contentVec, members)
			if err != nil {
				return err
			}

			mu.Lock()
			out[i] = cand
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// loadMembers 从画像存储批量加载成员画像；缺失画像的成员按冷启动处理。
func (e *Engine) loadMembers(ctx context.Context, memberIDs []string) ([]core.GroupMember, error) {
	profiles, err := e.store.BatchGet(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	members := make([]core.GroupMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		p, ok := profiles[id]
		if !ok {
			p = core.NewPreferenceProfile(id)
		}
		members = append(members, core.GroupMember{UserID: id, Preferences: p, Weight: 1})
	}
	return members, nil
}

// CalculateAffinity 计算两个用户口味向量的余弦相似度。
// 任一方冷启动时返回中性 0.5（无法从零计算，但不是错误）。
func (e *Engine) CalculateAffinity(ctx context.Context, userA, userB string) (float64, error) {
	profiles, err := e.store.BatchGet(ctx, []string{userA, userB})
	if err != nil {
		return 0, err
	}
	pa, pb := profiles[userA], profiles[userB]
	if pa == nil || pb == nil || pa.IsColdStart() || pb.IsColdStart() {
		return neutralScore, nil
	}
	return vector.Cosine(pa.Vector, pb.Vector)
}

// SimilarUser 是相似用户查询的一条结果。
type SimilarUser struct {
	UserID   string
	Affinity float64
}

// FindSimilarUsers 在候选用户池中找出与 userID 口味最接近的 k 个用户，
// 按亲和度降序返回。画像存储不提供全量枚举，候选池由调用方给定
// （好友列表、同组成员等）。目标用户冷启动时所有亲和度为中性 0.5。
func (e *Engine) FindSimilarUsers(ctx context.Context, userID string, candidateIDs []string, k int) ([]SimilarUser, error) {
	if k <= 0 || len(candidateIDs) == 0 {
		return nil, nil
	}

	ids := append([]string{userID}, candidateIDs...)
	profiles, err := e.store.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	self := profiles[userID]

	out := make([]SimilarUser, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == userID {
			continue
		}
		affinity := neutralScore
		other := profiles[id]
		if self != nil && other != nil && !self.IsColdStart() && !other.IsColdStart() {
			affinity, err = vector.Cosine(self.Vector, other.Vector)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, SimilarUser{UserID: id, Affinity: affinity})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Affinity > out[j].Affinity })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// CalculateContentGroupScore 为一条内容与一组用户计算群体打分，
// 不创建会话。embedding 不可用时所有成员记中性分。
func (e *Engine) CalculateContentGroupScore(ctx context.Context, content *core.Content, memberIDs []string) (*core.GroupCandidate, error) {
	members, err := e.loadMembers(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	contentVec, err := e.embedder.EmbedContent(ctx, content)
	if err != nil {
		return nil, err
	}
	return ScoreCandidate(content, contentVec, members)
}
