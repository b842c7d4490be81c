// Package comms 实现通信上下文生命周期
//
// comms 包负责：
// - 任意时刻持有至多一个活跃传输连接
// - 维护对等方运行时状态表（语音标志、身份、最近出现时间）
// - realm 切换：先建立新传输，可达后再同步拆除旧上下文
package comms

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/realmnet/go-realmnet/internal/core/eventbus"
	"github.com/realmnet/go-realmnet/internal/core/metrics"
	"github.com/realmnet/go-realmnet/internal/util/logger"
	transportif "github.com/realmnet/go-realmnet/pkg/interfaces/transport"
	"github.com/realmnet/go-realmnet/pkg/types"
)

var log = logger.Logger("comms")

// ============================================================================
//                              Context 实现
// ============================================================================

// Context 单个 realm 会话的通信上下文
//
// 生命周期：realm 被选中并请求连接时创建，被新上下文取代或
// 致命断连时销毁（其传输随之关闭）。对等方表只由本上下文
// 写入，消费者通过访问器读快照。
type Context struct {
	// id 会话标识（日志关联用）
	id    string
	realm types.Realm
	conn  transportif.Connection
	clk   clock.Clock
	met   *metrics.Metrics

	mu    sync.RWMutex
	peers map[types.PeerID]*types.PeerInfo

	talkingEvents *eventbus.Emitter[types.PeerTalkingEvent]

	// cancels 传输回调的注销函数
	cancels []func()

	closeOnce sync.Once
	closeErr  error
}

// NewContext 为指定 realm 与传输创建通信上下文
//
// 入站话题消息自动刷新对等方的 LastSeen。
func NewContext(realm types.Realm, conn transportif.Connection, clk clock.Clock, met *metrics.Metrics) *Context {
	if clk == nil {
		clk = clock.New()
	}
	if met == nil {
		met = metrics.Nop()
	}

	c := &Context{
		id:            uuid.NewString(),
		realm:         realm,
		conn:          conn,
		clk:           clk,
		met:           met,
		peers:         make(map[types.PeerID]*types.PeerInfo),
		talkingEvents: eventbus.NewEmitter[types.PeerTalkingEvent](),
	}

	c.cancels = append(c.cancels, conn.OnTopic(c.touchPeer))

	log.Debug("通信上下文已创建", "session", c.id, "realm", realm.ServerName)
	return c
}

// ID 返回会话标识
func (c *Context) ID() string {
	return c.id
}

// Realm 返回本上下文绑定的 realm
func (c *Context) Realm() types.Realm {
	return c.realm
}

// Connection 返回本上下文持有的传输连接
func (c *Context) Connection() transportif.Connection {
	return c.conn
}

// ============================================================================
//                              对等方状态
// ============================================================================

// touchPeer 入站消息刷新对等方的最近出现时间
func (c *Context) touchPeer(d types.TopicData) {
	if d.FromPeer.IsEmpty() {
		return
	}

	c.mu.Lock()
	p, ok := c.peers[d.FromPeer]
	if !ok {
		p = &types.PeerInfo{ID: d.FromPeer}
		c.peers[d.FromPeer] = p
		c.met.PeersKnown.Set(float64(len(c.peers)))
	}
	p.LastSeen = c.clk.Now()
	c.mu.Unlock()
}

// SetPeerIdentity 记录对等方的身份名（消费层解析后回填）
func (c *Context) SetPeerIdentity(id types.PeerID, identity string) {
	if id.IsEmpty() {
		return
	}

	c.mu.Lock()
	p, ok := c.peers[id]
	if !ok {
		p = &types.PeerInfo{ID: id}
		c.peers[id] = p
		c.met.PeersKnown.Set(float64(len(c.peers)))
	}
	p.Identity = identity
	p.LastSeen = c.clk.Now()
	c.mu.Unlock()
}

// SetPeerTalking 更新对等方语音活动标志
//
// 状态发生变化时通知订阅者；重复设置相同状态不产生事件。
func (c *Context) SetPeerTalking(id types.PeerID, talking bool) {
	if id.IsEmpty() {
		return
	}

	c.mu.Lock()
	p, ok := c.peers[id]
	if !ok {
		p = &types.PeerInfo{ID: id}
		c.peers[id] = p
		c.met.PeersKnown.Set(float64(len(c.peers)))
	}
	changed := p.Talking != talking
	p.Talking = talking
	p.LastSeen = c.clk.Now()
	c.mu.Unlock()

	if changed {
		c.talkingEvents.Emit(types.PeerTalkingEvent{Peer: id, Talking: talking})
	}
}

// OnPeerTalking 注册语音状态变更回调
func (c *Context) OnPeerTalking(fn func(types.PeerTalkingEvent)) (cancel func()) {
	return c.talkingEvents.Notify(fn)
}

// Peer 返回单个对等方状态的副本
func (c *Context) Peer(id types.PeerID) (types.PeerInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.peers[id]
	if !ok {
		return types.PeerInfo{}, false
	}
	return *p, true
}

// Peers 返回全部对等方状态的快照
func (c *Context) Peers() []types.PeerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.PeerInfo, 0, len(c.peers))
	for _, p := range c.peers {
		out = append(out, *p)
	}
	return out
}

// PeerCount 返回已知对等方数量
func (c *Context) PeerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.peers)
}

// ExpirePeers 清理超过 expiry 未出现的对等方，返回清理数量
func (c *Context) ExpirePeers(expiry time.Duration) int {
	cutoff := c.clk.Now().Add(-expiry)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, p := range c.peers {
		if p.LastSeen.Before(cutoff) {
			delete(c.peers, id)
			removed++
		}
	}
	if removed > 0 {
		c.met.PeersKnown.Set(float64(len(c.peers)))
		log.Debug("已清理过期对等方", "session", c.id, "removed", removed)
	}
	return removed
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 销毁上下文：注销传输回调并关闭传输（幂等）
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		for _, cancel := range c.cancels {
			cancel()
		}

		c.closeErr = c.conn.Close()

		c.mu.Lock()
		c.peers = make(map[types.PeerID]*types.PeerInfo)
		c.mu.Unlock()
		c.met.PeersKnown.Set(0)

		log.Debug("通信上下文已销毁", "session", c.id, "realm", c.realm.ServerName)
	})
	return c.closeErr
}
