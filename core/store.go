package core

import "context"

// PreferenceStore 是画像持久化的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 本核心自身不持久化任何状态，所有画像读写都经过此接口
//
// 实现：
//   - store.MemoryStore 实现此接口（测试/开发/单机）
//   - store.RedisStore 实现此接口（生产）
type PreferenceStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个用户画像；不存在时返回 ErrProfileNotFound
	Get(ctx context.Context, userID string) (*PreferenceProfile, error)

	// BatchGet 批量读取画像（群体打分常用，减少往返）；
	// 缺失的用户不出现在结果中，不视为错误
	BatchGet(ctx context.Context, userIDs []string) (map[string]*PreferenceProfile, error)

	// Put 写入画像（整体覆盖）
	Put(ctx context.Context, profile *PreferenceProfile) error

	// Delete 删除画像（隐私擦除）；删除不存在的用户不报错
	Delete(ctx context.Context, userID string) error

	// Close 关闭连接/释放资源
	Close() error
}

// SocialGraphStore 是社交连接信号的领域接口。
// RecordConnection 属于 fire-and-forget 信号增强：投同一候选的成员之间
// 的连接在会话定格时被加强，失败只影响信号质量，不影响决策结果。
type SocialGraphStore interface {
	// RecordConnection 加强一对用户之间的连接信号（无向）
	RecordConnection(ctx context.Context, userA, userB string) error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrProfileNotFound 表示用户画像不存在（冷启动的正常状态，消费方兜底）
	ErrProfileNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: preference profile not found")
)

// IsProfileNotFound 检查错误是否为画像不存在
func IsProfileNotFound(err error) bool {
	if err == nil {
		return false
	}
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
