package store

import (
	"context"
	"sync"

	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
)

// MemoryStore 是内存实现的画像/社交存储，用于测试、开发与单机部署。
// 进程重启后数据丢失。
type MemoryStore struct {
	mu          sync.RWMutex
	profiles    map[string]*core.PreferenceProfile
	connections map[string]float64 // pairKey(a,b) -> 连接强度
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:    make(map[string]*core.PreferenceProfile),
		connections: make(map[string]float64),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, userID string) (*core.PreferenceProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	// 返回拷贝，调用方的修改不会穿透到存储
	return p.Clone(), nil
}

func (m *MemoryStore) BatchGet(ctx context.Context, userIDs []string) (map[string]*core.PreferenceProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*core.PreferenceProfile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			result[id] = p.Clone()
		}
	}
	return result, nil
}

func (m *MemoryStore) Put(ctx context.Context, profile *core.PreferenceProfile) error {
	if profile == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: nil profile")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[profile.UserID] = profile.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.profiles, userID)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// RecordConnection 加强一对用户之间的连接信号（无向，每次 +1）。
func (m *MemoryStore) RecordConnection(ctx context.Context, userA, userB string) error {
	if userA == userB {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.connections[pairKey(userA, userB)]++
	return nil
}

// ConnectionStrength 查询一对用户的累计连接强度，无连接时为 0。
func (m *MemoryStore) ConnectionStrength(userA, userB string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[pairKey(userA, userB)]
}

var (
	_ core.PreferenceStore  = (*MemoryStore)(nil)
	_ core.SocialGraphStore = (*MemoryStore)(nil)
)
