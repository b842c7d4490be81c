package comms

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/eventbus"
	"github.com/realmnet/go-realmnet/internal/core/metrics"
	sceneif "github.com/realmnet/go-realmnet/pkg/interfaces/scene"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrManagerClosed 管理器已关闭
	ErrManagerClosed = errors.New("comms manager closed")

	// ErrNoActiveContext 当前没有活跃的通信上下文
	ErrNoActiveContext = errors.New("no active comms context")
)

// ============================================================================
//                              Manager 实现
// ============================================================================

// Manager 通信上下文管理器
//
// 持有至多一个活跃上下文。realm 切换顺序：先为新 realm 构造并
// 连接新传输，新传输可达之后才同步拆除旧上下文。该顺序收窄
// "无传输" 窗口但不保证零停机。
type Manager struct {
	cfg     *config.Config
	factory TransportFactory
	scene   sceneif.Notifier
	clk     clock.Clock
	met     *metrics.Metrics

	// switchMu 把整个 realm 切换（连接 + 安装 + 拆除旧上下文）
	// 串行化：并发的切换请求排队执行，败者不会留下孤儿传输
	switchMu sync.Mutex

	mu      sync.Mutex
	current *Context

	realmEvents *eventbus.Emitter[types.RealmChangedEvent]

	// topicEvents / islandEvents 跨 realm 切换存续的订阅：
	// 每个新传输的事件都重新挂接到这两个发射器上
	topicEvents  *eventbus.Emitter[types.TopicData]
	islandEvents *eventbus.Emitter[types.IslandChangedEvent]

	closed int32

	expireCancel context.CancelFunc
	expireDone   chan struct{}
}

// NewManager 创建通信上下文管理器
func NewManager(cfg *config.Config, factory TransportFactory, scene sceneif.Notifier, clk clock.Clock, met *metrics.Metrics) *Manager {
	if scene == nil {
		scene = sceneif.NopNotifier{}
	}
	if clk == nil {
		clk = clock.New()
	}
	if met == nil {
		met = metrics.Nop()
	}
	return &Manager{
		cfg:          cfg,
		factory:      factory,
		scene:        scene,
		clk:          clk,
		met:          met,
		realmEvents:  eventbus.NewEmitter[types.RealmChangedEvent](),
		topicEvents:  eventbus.NewEmitter[types.TopicData](),
		islandEvents: eventbus.NewEmitter[types.IslandChangedEvent](),
	}
}

// Start 启动对等方过期清理循环
func (m *Manager) Start() {
	if m.cfg.Comms.PeerExpiry <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.expireCancel = cancel
	m.expireDone = make(chan struct{})

	go m.expireLoop(ctx)
}

// expireLoop 周期性清理过期对等方
func (m *Manager) expireLoop(ctx context.Context) {
	defer close(m.expireDone)

	ticker := m.clk.Ticker(m.cfg.Comms.PeerExpiry)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			cur := m.current
			m.mu.Unlock()
			if cur != nil {
				cur.ExpirePeers(m.cfg.Comms.PeerExpiry)
			}
		}
	}
}

// ============================================================================
//                              realm 切换
// ============================================================================

// ConnectRealm 切换到指定 realm
//
// 当前 realm 与目标相同时为空操作。新传输连接失败时旧上下文
// 原样保留（切换被放弃），错误上抛给调用方。
func (m *Manager) ConnectRealm(ctx context.Context, realm types.Realm) error {
	if atomic.LoadInt32(&m.closed) == 1 {
		return ErrManagerClosed
	}

	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	if atomic.LoadInt32(&m.closed) == 1 {
		return ErrManagerClosed
	}

	m.mu.Lock()
	prev := m.current
	m.mu.Unlock()

	if prev != nil && prev.Realm().Equal(realm) {
		log.Debug("realm 未变化，跳过切换", "realm", realm.ServerName)
		return nil
	}

	m.scene.OnLoadingScreen(true)
	defer m.scene.OnLoadingScreen(false)

	conn := m.factory.New(realm)
	next := NewContext(realm, conn, m.clk, m.met)

	// 挂接跨切换存续的订阅：必须在握手前就位，
	// 否则握手完成后立即到达的帧会错过管理器级订阅者
	cancelTopic := conn.OnTopic(m.topicEvents.Emit)
	cancelIsland := conn.OnIslandChanged(m.islandEvents.Emit)

	log.Info("开始切换 realm",
		"to", realm.ServerName,
		"protocol", realm.Protocol,
		"session", next.ID())

	if err := conn.Connect(ctx); err != nil {
		// 切换被放弃：新传输收回，旧上下文保持活跃
		cancelTopic()
		cancelIsland()
		err = multierr.Append(err, next.Close())
		log.Warn("realm 切换失败，保留原连接", "to", realm.ServerName, "err", err)
		return err
	}

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()

	// 新传输可达后才拆除旧上下文（同步等待拆除完成）
	var prevRealm *types.Realm
	if prev != nil {
		r := prev.Realm()
		prevRealm = &r
		if err := prev.Close(); err != nil {
			log.Warn("旧上下文拆除出错", "realm", r.ServerName, "err", err)
		}
	}

	m.met.RealmSwitchesTotal.Inc()

	ev := types.RealmChangedEvent{Previous: prevRealm, Current: realm}
	m.realmEvents.Emit(ev)
	m.scene.OnRealmChanged(ev)

	log.Info("realm 切换完成", "realm", realm.ServerName, "session", next.ID())
	return nil
}

// Disconnect 拆除当前上下文（没有活跃上下文时为空操作）
func (m *Manager) Disconnect() error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	m.mu.Lock()
	cur := m.current
	m.current = nil
	m.mu.Unlock()

	if cur == nil {
		return nil
	}
	return cur.Close()
}

// ============================================================================
//                              访问器
// ============================================================================

// Current 返回当前活跃上下文（可能为 nil）
func (m *Manager) Current() *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CurrentRealm 返回当前连接的 realm
func (m *Manager) CurrentRealm() (types.Realm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return types.Realm{}, false
	}
	return m.current.Realm(), true
}

// SendTopic 通过当前传输发送话题消息
func (m *Manager) SendTopic(topic string, payload []byte) error {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur == nil {
		return ErrNoActiveContext
	}
	return cur.Connection().SendTopic(topic, payload)
}

// SetTopics 声明感兴趣的话题集合
func (m *Manager) SetTopics(topics []string) error {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur == nil {
		return ErrNoActiveContext
	}
	return cur.Connection().SetTopics(topics)
}

// Peers 返回当前上下文的对等方快照
func (m *Manager) Peers() []types.PeerInfo {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur == nil {
		return nil
	}
	return cur.Peers()
}

// SetPeerTalking 更新对等方语音状态并转发给场景层
func (m *Manager) SetPeerTalking(id types.PeerID, talking bool) {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur == nil {
		return
	}
	cur.SetPeerTalking(id, talking)
	m.scene.OnPeerTalking(types.PeerTalkingEvent{Peer: id, Talking: talking})
}

// OnRealmChanged 注册 realm 切换回调
func (m *Manager) OnRealmChanged(fn func(types.RealmChangedEvent)) (cancel func()) {
	return m.realmEvents.Notify(fn)
}

// OnTopic 注册话题消息回调（跨 realm 切换存续）
func (m *Manager) OnTopic(fn func(types.TopicData)) (cancel func()) {
	return m.topicEvents.Notify(fn)
}

// OnIslandChanged 注册 island 变更回调（跨 realm 切换存续）
func (m *Manager) OnIslandChanged(fn func(types.IslandChangedEvent)) (cancel func()) {
	return m.islandEvents.Notify(fn)
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭管理器：停止过期清理循环并拆除当前上下文（幂等）
func (m *Manager) Close() error {
	if !atomic.CompareAndSwapInt32(&m.closed, 0, 1) {
		return nil
	}

	var errs error
	if m.expireCancel != nil {
		m.expireCancel()
		<-m.expireDone
	}
	errs = multierr.Append(errs, m.Disconnect())
	return errs
}
