package realmnet

import (
	"context"
	"sync"
	"time"

	"github.com/realmnet/go-realmnet/internal/core/comms"
	"github.com/realmnet/go-realmnet/internal/core/selector"
	"github.com/realmnet/go-realmnet/internal/util/logger"
	identityif "github.com/realmnet/go-realmnet/pkg/interfaces/identity"
	"github.com/realmnet/go-realmnet/pkg/types"
)

var log = logger.Logger("realmnet")

// ════════════════════════════════════════════════════════════════════════════
//                              客户端状态
// ════════════════════════════════════════════════════════════════════════════

// ClientState 客户端生命周期状态
type ClientState int

const (
	// StateIdle 已创建，未启动
	StateIdle ClientState = iota

	// StateRunning 运行中
	StateRunning

	// StateStopped 已停止（不可重新启动）
	StateStopped
)

// String 返回状态的字符串表示
func (s ClientState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// 启动超时配置
const startTimeout = 30 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              Client 实现
// ════════════════════════════════════════════════════════════════════════════

// Client presence 网络客户端，用户交互的主入口
//
// 内部由 Fx 装配：评分链、realm 选择器、传输工厂与通信上下文
// 管理器。Client 暴露窄 API：投喂候选、读当前 realm、话题收发、
// 对等方状态。
type Client struct {
	opts *options
	app  appRunner

	mu    sync.Mutex
	state ClientState

	// Fx Populate 注入
	selector *selector.Selector
	manager  *comms.Manager

	signer identityif.Signer

	// cancelDecision 选择器决策订阅的注销函数
	cancelDecision func()
}

// appRunner 隔离 fx.App 的启动/停止接口（测试替身用）
type appRunner interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// New 创建客户端（不启动）
func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	c := &Client{
		opts:  o,
		state: StateIdle,
	}

	app, err := buildFxApp(o, c)
	if err != nil {
		return nil, err
	}
	c.app = app
	return c, nil
}

// Start 创建并启动客户端（一步到位的便捷入口）
func Start(ctx context.Context, opts ...Option) (*Client, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := c.StartWithContext(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// StartWithContext 启动客户端
//
// 启动 Fx 应用（选择器重选循环、对等方过期清理），挂接
// 选择器决策 → 传输连接的转发，并投喂初始候选集。
func (c *Client) StartWithContext(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateRunning:
		c.mu.Unlock()
		return ErrAlreadyStarted
	case StateStopped:
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.mu.Unlock()

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := c.app.Start(startCtx); err != nil {
		return err
	}

	if c.opts.autoConnect {
		c.cancelDecision = c.selector.OnDecision(c.onRealmDecision)
	}

	c.mu.Lock()
	c.state = StateRunning
	c.mu.Unlock()

	log.Info("客户端已启动", "peer", c.signer.PeerID().ShortString(), "version", Version)

	if len(c.opts.candidates) > 0 {
		if _, err := c.SetCandidates(c.opts.candidates); err != nil {
			log.Warn("初始候选集选择失败", "err", err)
		}
	}
	return nil
}

// onRealmDecision 选择器决策转发：为选中的 realm 建立传输
//
// 连接在后台进行；失败只记日志，旧连接保留，等待下一轮决策。
func (c *Client) onRealmDecision(realm types.Realm) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		if err := c.manager.ConnectRealm(ctx, realm); err != nil {
			log.Warn("realm 连接失败", "realm", realm.ServerName, "err", err)
		}
	}()
}

// Stop 停止客户端并释放全部资源
//
// 停止后不可重新启动；幂等。
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return nil
	}
	started := c.state == StateRunning
	c.state = StateStopped
	c.mu.Unlock()

	if c.cancelDecision != nil {
		c.cancelDecision()
		c.cancelDecision = nil
	}

	if !started {
		return nil
	}

	log.Info("客户端停止中")
	return c.app.Stop(ctx)
}

// State 返回客户端生命周期状态
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ════════════════════════════════════════════════════════════════════════════
//                              选择与连接
// ════════════════════════════════════════════════════════════════════════════

// SetCandidates 投喂一次扫描得到的候选集并触发选择
//
// 候选快照整体替换，从不原地修改。选中的 realm 通过返回值给出；
// 自动连接开启时传输切换在后台进行。
func (c *Client) SetCandidates(candidates []types.Candidate) (types.Realm, error) {
	if c.State() != StateRunning {
		return types.Realm{}, ErrNotStarted
	}
	return c.selector.SetCandidates(candidates)
}

// ConnectRealm 显式连接到指定 realm（绕过选择器）
func (c *Client) ConnectRealm(ctx context.Context, realm types.Realm) error {
	if c.State() != StateRunning {
		return ErrNotStarted
	}
	return c.manager.ConnectRealm(ctx, realm)
}

// CurrentRealm 返回当前连接的 realm
//
// 已有传输连接时返回其 realm；否则返回选择器最近一次决策。
func (c *Client) CurrentRealm() (types.Realm, bool) {
	if realm, ok := c.manager.CurrentRealm(); ok {
		return realm, true
	}
	return c.selector.CurrentRealm()
}

// ConnectionState 返回当前传输连接状态
func (c *Client) ConnectionState() types.ConnState {
	cur := c.manager.Current()
	if cur == nil {
		return types.ConnStateIdle
	}
	return cur.Connection().State()
}

// ════════════════════════════════════════════════════════════════════════════
//                              话题与对等方
// ════════════════════════════════════════════════════════════════════════════

// PeerID 返回本客户端的对等方 ID
func (c *Client) PeerID() types.PeerID {
	return c.signer.PeerID()
}

// SendTopic 通过当前传输发送话题消息
func (c *Client) SendTopic(topic string, payload []byte) error {
	if c.State() != StateRunning {
		return ErrNotStarted
	}
	return c.manager.SendTopic(topic, payload)
}

// SetTopics 声明感兴趣的话题集合
func (c *Client) SetTopics(topics []string) error {
	if c.State() != StateRunning {
		return ErrNotStarted
	}
	return c.manager.SetTopics(topics)
}

// Peers 返回当前会话的对等方状态快照
func (c *Client) Peers() []types.PeerInfo {
	return c.manager.Peers()
}

// SetPeerTalking 更新对等方语音活动状态（语音层回填）
func (c *Client) SetPeerTalking(id types.PeerID, talking bool) {
	c.manager.SetPeerTalking(id, talking)
}

// ════════════════════════════════════════════════════════════════════════════
//                              事件订阅
// ════════════════════════════════════════════════════════════════════════════

// OnRealmChanged 注册 realm 切换回调
func (c *Client) OnRealmChanged(fn func(types.RealmChangedEvent)) (cancel func()) {
	return c.manager.OnRealmChanged(fn)
}

// OnTopic 注册话题消息回调（跨 realm 切换存续）
func (c *Client) OnTopic(fn func(types.TopicData)) (cancel func()) {
	return c.manager.OnTopic(fn)
}

// OnIslandChanged 注册 island 变更回调
func (c *Client) OnIslandChanged(fn func(types.IslandChangedEvent)) (cancel func()) {
	return c.manager.OnIslandChanged(fn)
}

// OnDecision 注册选择器决策回调
func (c *Client) OnDecision(fn func(types.Realm)) (cancel func()) {
	return c.selector.OnDecision(fn)
}
