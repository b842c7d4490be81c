// Package selector 实现 realm 选择编排
//
// 选择器把评分链施加到当前候选集上：扫描完成、显式调用和周期性
// tick 都会触发一次选择。链全部弃权时走确定性回退（按稳定排序键
// 取第一个候选），候选集非空时回退必定给出结果。重选结果与当前
// Realm 相同（按身份字段比较）时不触发任何切换。
package selector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/eventbus"
	"github.com/realmnet/go-realmnet/internal/core/selection"
	"github.com/realmnet/go-realmnet/internal/util/logger"
	positionif "github.com/realmnet/go-realmnet/pkg/interfaces/position"
	selectionif "github.com/realmnet/go-realmnet/pkg/interfaces/selection"
	"github.com/realmnet/go-realmnet/pkg/types"
)

var log = logger.Logger("selector")

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrNoCandidates 候选集为空，无从选择
	ErrNoCandidates = errors.New("no realm candidates")

	// ErrClosed 选择器已停止
	ErrClosed = errors.New("selector closed")
)

// ============================================================================
//                              Selector 实现
// ============================================================================

// Selector realm 选择器
type Selector struct {
	cfg      config.SelectionConfig
	chain    *selection.Chain
	adjuster selectionif.ScoreAdjuster
	registry *selection.LatencyRegistry
	position positionif.Provider
	prober   LatencyProber
	clock    clock.Clock

	mu         sync.RWMutex
	candidates []types.Candidate
	current    *types.Realm

	// decisions 选出新 realm 时触发（与当前相同时不触发）
	decisions *eventbus.Emitter[types.Realm]

	running int32
	closed  int32
	ctx     context.Context
	cancel  context.CancelFunc
}

// Options 选择器的可选依赖
type Options struct {
	// Position 本地用户位置来源（可为 nil）
	Position positionif.Provider

	// Prober 延迟探测器（可为 nil，禁用探测）
	Prober LatencyProber

	// Clock 时钟（nil 时使用真实时钟）
	Clock clock.Clock
}

// New 创建选择器
func New(cfg config.SelectionConfig, chain *selection.Chain, adjuster selectionif.ScoreAdjuster, registry *selection.LatencyRegistry, opts Options) *Selector {
	c := opts.Clock
	if c == nil {
		c = clock.New()
	}
	return &Selector{
		cfg:       cfg,
		chain:     chain,
		adjuster:  adjuster,
		registry:  registry,
		position:  opts.Position,
		prober:    opts.Prober,
		clock:     c,
		decisions: eventbus.NewEmitter[types.Realm](),
	}
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动周期性重选循环
func (s *Selector) Start(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil
	}

	// 不复用 OnStart 的 ctx：它在 OnStart 返回后即被取消
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if s.cfg.ReselectInterval > 0 {
		go s.reselectLoop()
	}

	log.Info("选择器已启动", "interval", s.cfg.ReselectInterval)
	return nil
}

// Stop 停止选择器
func (s *Selector) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	atomic.StoreInt32(&s.running, 0)
	log.Info("选择器已停止")
	return nil
}

// reselectLoop 周期性重选循环
func (s *Selector) reselectLoop() {
	ticker := s.clock.Ticker(s.cfg.ReselectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshLatencies(s.ctx); err != nil {
				log.Debug("延迟探测失败", "err", err)
			}
			if _, err := s.Pick(); err != nil && !errors.Is(err, ErrNoCandidates) {
				log.Warn("周期重选失败", "err", err)
			}
		}
	}
}

// ============================================================================
//                              候选与选择
// ============================================================================

// SetCandidates 接收一次扫描结果并立即重选
//
// 候选集整体替换（快照语义），随后的一次评分看到一致的数据。
func (s *Selector) SetCandidates(candidates []types.Candidate) (types.Realm, error) {
	snapshot := make([]types.Candidate, len(candidates))
	copy(snapshot, candidates)

	s.mu.Lock()
	s.candidates = snapshot
	s.mu.Unlock()

	return s.Pick()
}

// Pick 对当前候选集运行评分链并返回选中的 realm
//
// 链全部弃权时走确定性回退。与当前 realm 相同（身份字段）时
// 直接返回而不触发 decisions 通知。
func (s *Selector) Pick() (types.Realm, error) {
	if atomic.LoadInt32(&s.closed) == 1 {
		return types.Realm{}, ErrClosed
	}

	s.mu.RLock()
	candidates := s.candidates
	current := s.current
	s.mu.RUnlock()

	if len(candidates) == 0 {
		return types.Realm{}, ErrNoCandidates
	}

	ctx := &selectionif.Context{
		Candidates: candidates,
		UserParcel: s.userParcel(),
		Adjuster:   s.adjuster,
	}

	picked, ok := s.chain.Pick(ctx)
	if !ok {
		picked = fallbackPick(candidates)
		log.Debug("评分链弃权，使用回退候选", "picked", picked.ServerName)
	}

	realm := picked.Realm()

	if current != nil && current.Equal(realm) {
		// 分数噪声接近 margin 时避免重连抖动
		return *current, nil
	}

	s.mu.Lock()
	s.current = &realm
	s.mu.Unlock()

	log.Info("选出新 realm", "realm", realm.String())
	s.decisions.Emit(realm)
	return realm, nil
}

// CurrentRealm 返回当前选中的 realm（尚未选择时 ok=false）
func (s *Selector) CurrentRealm() (types.Realm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return types.Realm{}, false
	}
	return *s.current, true
}

// OnDecision 注册新 realm 决策回调
func (s *Selector) OnDecision(fn func(types.Realm)) (cancel func()) {
	return s.decisions.Notify(fn)
}

// userParcel 读取本地用户当前 parcel
func (s *Selector) userParcel() *types.Parcel {
	if s.position == nil {
		return nil
	}
	pos, ok := s.position.Position()
	if !ok {
		return nil
	}
	parcel := pos.Parcel()
	return &parcel
}

// fallbackPick 确定性回退：按稳定排序键取第一个候选
func fallbackPick(candidates []types.Candidate) *types.Candidate {
	best := &candidates[0]
	for i := range candidates {
		if candidates[i].Key() < best.Key() {
			best = &candidates[i]
		}
	}
	return best
}

// ============================================================================
//                              延迟探测
// ============================================================================

// RefreshLatencies 并发探测所有候选并记录延迟样本
func (s *Selector) RefreshLatencies(ctx context.Context) error {
	if s.prober == nil || s.registry == nil {
		return nil
	}

	s.mu.RLock()
	candidates := s.candidates
	s.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i := range candidates {
		c := candidates[i]
		g.Go(func() error {
			sample, err := s.prober.Probe(gctx, c.Hostname)
			if err != nil {
				// 探测失败只记日志；无样本的候选不被扣减
				log.Debug("探测失败", "hostname", c.Hostname, "err", err)
				return nil
			}
			s.registry.Record(c.Key(), sample)
			return nil
		})
	}

	return g.Wait()
}
