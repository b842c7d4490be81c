package selection

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	selectionif "github.com/realmnet/go-realmnet/pkg/interfaces/selection"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              LatencyRegistry - 延迟样本
// ============================================================================

// LatencyRegistry 各候选 realm 最近一次延迟样本的缓存
//
// 样本由选择器的探测流程写入，键为候选的稳定排序键。
// LRU 上限防止长时间运行后旧候选样本无限累积。
type LatencyRegistry struct {
	mu    sync.RWMutex
	cache *lru.Cache[string, time.Duration]
}

// NewLatencyRegistry 创建延迟样本缓存
func NewLatencyRegistry(size int) (*LatencyRegistry, error) {
	cache, err := lru.New[string, time.Duration](size)
	if err != nil {
		return nil, err
	}
	return &LatencyRegistry{cache: cache}, nil
}

// Record 记录候选的延迟样本
func (r *LatencyRegistry) Record(key string, sample time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Add(key, sample)
}

// Lookup 查询候选的最近延迟样本
func (r *LatencyRegistry) Lookup(key string) (time.Duration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Get(key)
}

// ============================================================================
//                              延迟扣减 addon
// ============================================================================

// NewLatencyDeduction 创建延迟扣减修正器
//
// 对每个 link 的原始分统一减去 multiplier × 延迟秒数。
// 无样本的候选不扣减。
func NewLatencyDeduction(registry *LatencyRegistry, multiplier float64) selectionif.ScoreAdjuster {
	return selectionif.AdjusterFunc(func(c *types.Candidate, raw int) int {
		if registry == nil {
			return raw
		}
		sample, ok := registry.Lookup(c.Key())
		if !ok {
			return raw
		}
		return raw - int(multiplier*sample.Seconds())
	})
}
