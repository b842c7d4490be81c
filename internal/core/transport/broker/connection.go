package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/eventbus"
	"github.com/realmnet/go-realmnet/internal/core/metrics"
	"github.com/realmnet/go-realmnet/internal/core/transport"
	"github.com/realmnet/go-realmnet/internal/util/logger"
	transportif "github.com/realmnet/go-realmnet/pkg/interfaces/transport"
	"github.com/realmnet/go-realmnet/pkg/types"
)

var log = logger.Logger("transport/broker")

// variantLabel 指标中的变体标签
const variantLabel = "broker"

// LegacyTopic 旧协议转发消息的统一话题名
//
// 旧协议不在传输层区分话题身份，区分是消费层的职责。
const LegacyTopic = "LEGACY"

// ============================================================================
//                              Options 与构造
// ============================================================================

// Options Broker 连接的依赖
type Options struct {
	// Config 传输配置
	Config config.TransportConfig

	// Metrics 指标（nil 时不注册）
	Metrics *metrics.Metrics
}

// Connection 旧版 Broker/Coordinator 传输连接
//
// 状态机：Idle → Connecting → Open(等待别名) → Open(已分配) → Closed。
// "已连接" 信号只在收到 WELCOME 且 CONNECT 已发出之后解除，
// 不在 socket 建立时解除。
type Connection struct {
	realm types.Realm
	opts  Options
	met   *metrics.Metrics

	mu       sync.Mutex
	state    types.ConnState
	sock     *websocket.Conn
	alias    uint64
	assigned bool

	writeMu sync.Mutex

	// openCh 注册完成信号（缓冲 1，非阻塞投递）
	openCh chan error

	teardownOnce sync.Once

	topicEvents      *eventbus.Emitter[types.TopicData]
	islandEvents     *eventbus.Emitter[types.IslandChangedEvent]
	disconnectEvents *eventbus.Emitter[error]
}

// 确保实现接口
var _ transportif.Connection = (*Connection)(nil)

// New 创建 Broker 连接实例
func New(realm types.Realm, opts Options) *Connection {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	return &Connection{
		realm:            realm,
		opts:             opts,
		met:              opts.Metrics,
		state:            types.ConnStateIdle,
		openCh:           make(chan error, 1),
		topicEvents:      eventbus.NewEmitter[types.TopicData](),
		islandEvents:     eventbus.NewEmitter[types.IslandChangedEvent](),
		disconnectEvents: eventbus.NewEmitter[error](),
	}
}

// ============================================================================
//                              连接建立
// ============================================================================

// Connect 建立 socket 并完成别名注册
//
// 返回 nil 时 WELCOME 已收到且 CONNECT 已发出。
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != types.ConnStateIdle {
		c.mu.Unlock()
		return transport.ErrAlreadyConnected
	}
	c.state = types.ConnStateConnecting
	c.mu.Unlock()

	addr, err := transport.ResolveBrokerURL(c.realm.Hostname)
	if err != nil {
		c.teardown(err)
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.opts.Config.DialTimeout,
		Subprotocols:     []string{c.opts.Config.Subprotocol},
	}

	log.Debug("连接 coordinator", "addr", addr, "realm", c.realm.ServerName)

	sock, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", addr, err)
		c.teardown(err)
		return err
	}

	c.mu.Lock()
	c.sock = sock
	c.state = types.ConnStateOpen // 等待别名分配
	c.mu.Unlock()

	go c.readLoop(sock)

	timer := time.NewTimer(c.opts.Config.HandshakeTimeout)
	defer timer.Stop()

	select {
	case err := <-c.openCh:
		if err != nil {
			c.teardown(err)
			return err
		}
	case <-ctx.Done():
		c.teardown(ctx.Err())
		return ctx.Err()
	case <-timer.C:
		c.teardown(transport.ErrHandshakeTimeout)
		return transport.ErrHandshakeTimeout
	}

	c.met.ConnectionsTotal.WithLabelValues(variantLabel).Inc()
	log.Info("coordinator 连接已就绪", "realm", c.realm.ServerName, "alias", c.Alias())
	return nil
}

// State 返回当前连接状态
func (c *Connection) State() types.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Alias 返回服务端分配的别名（未分配时为 0）
func (c *Connection) Alias() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alias
}

// ============================================================================
//                              入站分发
// ============================================================================

// readLoop 单读者循环：按 socket 递交顺序逐帧处理
func (c *Connection) readLoop(sock *websocket.Conn) {
	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			c.teardown(err)
			return
		}

		frame, derr := Decode(data)
		if derr != nil {
			log.Debug("丢弃格式错误的帧", "err", derr)
			c.met.FramesDroppedTotal.WithLabelValues(variantLabel).Inc()
			continue
		}

		switch m := frame.(type) {
		case Welcome:
			c.handleWelcome(m)

		case TopicFW:
			c.forward(m.Raw)
		case TopicIdentityFW:
			c.forward(m.Raw)
		case Ping:
			c.forward(m.Raw)

		case Unrecognized:
			log.Debug("丢弃未知种类的帧", "kind", m.RawKind)
			c.met.FramesDroppedTotal.WithLabelValues(variantLabel).Inc()

		default:
			log.Debug("忽略不期待的帧种类")
		}
	}
}

// handleWelcome 记录别名并回复 CONNECT 注册
//
// 注册完成信号在 CONNECT 发出之后才解除，订阅方由此保证
// "已连接" 意味着协调器已知道本客户端。
func (c *Connection) handleWelcome(m Welcome) {
	c.mu.Lock()
	c.alias = m.Alias
	c.mu.Unlock()

	if err := c.send(Encode(Connect{From: m.Alias, To: 0})); err != nil {
		c.signalOpen(err)
		return
	}

	c.mu.Lock()
	c.assigned = true
	c.mu.Unlock()

	c.signalOpen(nil)
}

// forward 把旧协议消息体统一转发给订阅者
//
// 话题固定为 LEGACY，发送方身份由消费层从消息体解析。
func (c *Connection) forward(raw []byte) {
	c.met.TopicsInTotal.WithLabelValues(variantLabel).Inc()
	c.topicEvents.Emit(types.TopicData{
		Topic:   LegacyTopic,
		Payload: raw,
	})
}

// signalOpen 非阻塞投递注册结果
func (c *Connection) signalOpen(err error) {
	select {
	case c.openCh <- err:
	default:
	}
}

// ============================================================================
//                              发送
// ============================================================================

// SendTopic 发送话题消息
//
// 别名尚未分配时返回 ErrNotAssigned；与 BFF 变体不同，本变体
// 没有可跳过的消息，发送失败一律显式报错。
func (c *Connection) SendTopic(topic string, payload []byte) error {
	c.mu.Lock()
	assigned := c.assigned
	c.mu.Unlock()

	if !assigned {
		return transport.ErrNotAssigned
	}
	return c.send(Encode(TopicFW{Raw: payload}))
}

// SetTopics 记录感兴趣的话题集合
//
// 旧协议没有订阅帧，服务端按空间分组推送；此处只校验连接可用。
func (c *Connection) SetTopics(topics []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == types.ConnStateClosing || c.state == types.ConnStateClosed {
		return transport.ErrTransportClosed
	}
	return nil
}

// send 向 socket 写一帧
func (c *Connection) send(data []byte) error {
	c.mu.Lock()
	sock := c.sock
	state := c.state
	c.mu.Unlock()

	if sock == nil || state != types.ConnStateOpen {
		return transport.ErrTransportClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = sock.SetWriteDeadline(time.Now().Add(c.opts.Config.WriteTimeout))
	if err := sock.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("%w: %v", transport.ErrTransportClosed, err)
	}
	return nil
}

// ============================================================================
//                              订阅与拆除
// ============================================================================

// OnTopic 注册转发消息回调
func (c *Connection) OnTopic(fn func(types.TopicData)) (cancel func()) {
	return c.topicEvents.Notify(fn)
}

// OnIslandChanged 注册 island 变更回调
//
// 旧协议没有 island 概念，回调永不触发；保留注册入口以统一
// 两个变体的接口。
func (c *Connection) OnIslandChanged(fn func(types.IslandChangedEvent)) (cancel func()) {
	return c.islandEvents.Notify(fn)
}

// OnDisconnect 注册断连回调
func (c *Connection) OnDisconnect(fn func(error)) (cancel func()) {
	return c.disconnectEvents.Notify(fn)
}

// Close 关闭连接（幂等）
func (c *Connection) Close() error {
	c.teardown(nil)
	return nil
}

// teardown 完整拆除：收回 socket、通知断连订阅者
//
// 幂等，断连通知恰好送达一次。本层不做自动重连，重试由
// 调用方负责。
func (c *Connection) teardown(cause error) {
	c.teardownOnce.Do(func() {
		c.mu.Lock()
		c.state = types.ConnStateClosing
		sock := c.sock
		c.sock = nil
		c.assigned = false
		c.mu.Unlock()

		if sock != nil {
			_ = sock.Close()
		}

		c.mu.Lock()
		c.state = types.ConnStateClosed
		c.mu.Unlock()

		if cause != nil {
			c.signalOpen(cause)
		} else {
			c.signalOpen(transport.ErrTransportClosed)
		}

		c.met.DisconnectsTotal.WithLabelValues(variantLabel).Inc()
		if cause != nil {
			log.Info("coordinator 连接已断开", "realm", c.realm.ServerName, "cause", cause)
		} else {
			log.Info("coordinator 连接已关闭", "realm", c.realm.ServerName)
		}

		c.disconnectEvents.Emit(cause)
	})
}
