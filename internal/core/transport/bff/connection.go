package bff

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/eventbus"
	"github.com/realmnet/go-realmnet/internal/core/metrics"
	"github.com/realmnet/go-realmnet/internal/core/transport"
	"github.com/realmnet/go-realmnet/internal/util/logger"
	identityif "github.com/realmnet/go-realmnet/pkg/interfaces/identity"
	positionif "github.com/realmnet/go-realmnet/pkg/interfaces/position"
	transportif "github.com/realmnet/go-realmnet/pkg/interfaces/transport"
	"github.com/realmnet/go-realmnet/pkg/types"
)

var log = logger.Logger("transport/bff")

// variantLabel 指标中的变体标签
const variantLabel = "bff"

// ============================================================================
//                              Options 与构造
// ============================================================================

// Options BFF 连接的依赖
type Options struct {
	// Config 传输配置
	Config config.TransportConfig

	// HeartbeatInterval 心跳间隔
	HeartbeatInterval time.Duration

	// Signer 签名凭据（认证挑战应答必需）
	Signer identityif.Signer

	// Position 本地用户位置来源（可为 nil，心跳将全部跳过）
	Position positionif.Provider

	// Clock 时钟（nil 时使用真实时钟）
	Clock clock.Clock

	// Metrics 指标（nil 时不注册）
	Metrics *metrics.Metrics
}

// Connection BFF 传输连接
//
// 状态机：Idle → Connecting → Authenticating → Open → Closed。
// 一个实例只经历一次生命周期，重连由上层创建新实例。
type Connection struct {
	realm types.Realm
	opts  Options
	clk   clock.Clock
	met   *metrics.Metrics

	mu     sync.Mutex
	state  types.ConnState
	sock   *websocket.Conn
	topics []string

	// writeMu 串行化 socket 写（gorilla 不允许并发写）
	writeMu sync.Mutex

	// openCh 认证结果信号（缓冲 1，非阻塞投递）
	openCh chan error

	hbCancel context.CancelFunc

	teardownOnce sync.Once

	topicEvents      *eventbus.Emitter[types.TopicData]
	islandEvents     *eventbus.Emitter[types.IslandChangedEvent]
	disconnectEvents *eventbus.Emitter[error]
}

// 确保实现接口
var _ transportif.Connection = (*Connection)(nil)

// New 创建 BFF 连接实例
func New(realm types.Realm, opts Options) *Connection {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	return &Connection{
		realm:            realm,
		opts:             opts,
		clk:              opts.Clock,
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

// Connect 建立 socket 并完成认证握手
//
// 返回 nil 时连接已处于 Open 状态且心跳已启动。
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != types.ConnStateIdle {
		c.mu.Unlock()
		return transport.ErrAlreadyConnected
	}
	c.state = types.ConnStateConnecting
	c.mu.Unlock()

	addr, err := transport.ResolveBFFURL(c.realm.Hostname)
	if err != nil {
		c.teardown(err)
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.opts.Config.DialTimeout,
		Subprotocols:     []string{c.opts.Config.Subprotocol},
	}

	log.Debug("连接 BFF", "addr", addr, "realm", c.realm.ServerName)

	sock, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", addr, err)
		c.teardown(err)
		return err
	}

	c.mu.Lock()
	c.sock = sock
	c.state = types.ConnStateAuthenticating
	c.mu.Unlock()

	go c.readLoop(sock)

	// 等待认证挑战/应答完成
	timer := c.clk.Timer(c.opts.Config.HandshakeTimeout)
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

	c.mu.Lock()
	if c.state != types.ConnStateAuthenticating {
		c.mu.Unlock()
		return transport.ErrTransportClosed
	}
	c.state = types.ConnStateOpen

	hbCtx, cancel := context.WithCancel(context.Background())
	c.hbCancel = cancel
	pendingTopics := strings.Join(c.topics, " ")
	c.mu.Unlock()

	c.met.ConnectionsTotal.WithLabelValues(variantLabel).Inc()
	log.Info("BFF 连接已就绪", "realm", c.realm.ServerName)

	go c.heartbeatLoop(hbCtx)

	if pendingTopics != "" {
		if err := c.send(Encode(Subscription{TopicList: pendingTopics})); err != nil {
			log.Warn("补发订阅失败", "err", err)
		}
	}

	return nil
}

// State 返回当前连接状态
func (c *Connection) State() types.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ============================================================================
//                              入站分发
// ============================================================================

// readLoop 单读者循环：按 socket 递交顺序逐帧处理（每连接 FIFO）
func (c *Connection) readLoop(sock *websocket.Conn) {
	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			c.teardown(err)
			return
		}

		frame, derr := Decode(data)
		if derr != nil {
			// 单个畸形帧不得拖垮健康会话：记日志后丢弃
			log.Debug("丢弃格式错误的帧", "err", derr)
			c.met.FramesDroppedTotal.WithLabelValues(variantLabel).Inc()
			continue
		}

		switch m := frame.(type) {
		case Open:
			c.handleChallenge(m)

		case ValidationOK:
			c.signalOpen(nil)

		case ValidationFailure:
			c.teardown(transport.ErrAuthFailure)
			return

		case Topic:
			c.met.TopicsInTotal.WithLabelValues(variantLabel).Inc()
			c.topicEvents.Emit(types.TopicData{
				FromPeer: m.PeerID,
				Topic:    m.Topic,
				Payload:  m.Body,
			})

		case IslandChanges:
			c.islandEvents.Emit(types.IslandChangedEvent{ConnStr: m.ConnStr})

		case Unrecognized:
			log.Debug("丢弃未知种类的帧", "kind", m.RawKind)
			c.met.FramesDroppedTotal.WithLabelValues(variantLabel).Inc()

		default:
			// 服务器不应回送的种类（Heartbeat/Validation/Subscription）
			log.Debug("忽略不期待的帧种类")
		}
	}
}

// handleChallenge 对 OPEN 挑战签名并回复 VALIDATION
//
// 签名对象必须是挑战字节的原样内容。
func (c *Connection) handleChallenge(m Open) {
	signed, err := c.opts.Signer.Sign(m.Challenge)
	if err != nil {
		c.teardown(fmt.Errorf("sign challenge: %w", err))
		return
	}
	if err := c.send(Encode(Validation{SignedPayload: signed})); err != nil {
		c.teardown(err)
	}
}

// signalOpen 非阻塞投递认证结果
func (c *Connection) signalOpen(err error) {
	select {
	case c.openCh <- err:
	default:
	}
}

// ============================================================================
//                              心跳
// ============================================================================

// heartbeatLoop 固定间隔发送心跳，直到拆除
func (c *Connection) heartbeatLoop(ctx context.Context) {
	ticker := c.clk.Ticker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sendHeartbeat(); err != nil {
				log.Debug("心跳发送失败", "err", err)
				return
			}
		}
	}
}

// sendHeartbeat 发送一次心跳
//
// 位置未知时跳过（不发送空负载心跳）。
func (c *Connection) sendHeartbeat() error {
	pos, ok := c.currentPosition()
	if !ok {
		c.met.HeartbeatsSkippedTotal.Inc()
		log.Debug("位置未知，跳过心跳")
		return nil
	}

	hb := Heartbeat{
		TimeMS:      uint64(c.clk.Now().UnixMilli()),
		HasPosition: true,
		Position:    pos,
	}
	if err := c.send(Encode(hb)); err != nil {
		return err
	}
	c.met.HeartbeatsSentTotal.Inc()
	return nil
}

func (c *Connection) currentPosition() (types.Position, bool) {
	if c.opts.Position == nil {
		return types.Position{}, false
	}
	return c.opts.Position.Position()
}

// ============================================================================
//                              发送
// ============================================================================

// SendTopic 发送话题消息（要求连接处于 Open）
func (c *Connection) SendTopic(topic string, payload []byte) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	if state != types.ConnStateOpen {
		return transport.ErrTransportClosed
	}

	return c.send(Encode(Topic{
		Topic:  topic,
		PeerID: c.opts.Signer.PeerID(),
		Body:   payload,
	}))
}

// SetTopics 声明感兴趣的话题集合
//
// 未连接时先记录，连接建立后补发订阅帧。
func (c *Connection) SetTopics(topics []string) error {
	c.mu.Lock()
	c.topics = append([]string(nil), topics...)
	state := c.state
	c.mu.Unlock()

	if state != types.ConnStateOpen {
		return nil
	}
	return c.send(Encode(Subscription{TopicList: strings.Join(topics, " ")}))
}

// send 向 socket 写一帧
//
// socket 不存在或连接已（在）关闭时返回 ErrTransportClosed，
// 不静默吞掉。
func (c *Connection) send(data []byte) error {
	c.mu.Lock()
	sock := c.sock
	state := c.state
	c.mu.Unlock()

	if sock == nil || state == types.ConnStateClosing || state == types.ConnStateClosed ||
		state == types.ConnStateIdle || state == types.ConnStateConnecting {
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

// OnTopic 注册话题消息回调
func (c *Connection) OnTopic(fn func(types.TopicData)) (cancel func()) {
	return c.topicEvents.Notify(fn)
}

// OnIslandChanged 注册 island 变更回调
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

// teardown 完整拆除：取消心跳、收回 socket、通知断连订阅者
//
// 幂等：重复调用（认证失败后又收到 socket 错误等）只生效一次，
// 断连通知恰好送达一次。
func (c *Connection) teardown(cause error) {
	c.teardownOnce.Do(func() {
		c.mu.Lock()
		c.state = types.ConnStateClosing
		sock := c.sock
		c.sock = nil
		cancel := c.hbCancel
		c.hbCancel = nil
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if sock != nil {
			_ = sock.Close()
		}

		c.mu.Lock()
		c.state = types.ConnStateClosed
		c.mu.Unlock()

		// 解除可能还在等认证结果的 Connect
		if cause != nil {
			c.signalOpen(cause)
		} else {
			c.signalOpen(transport.ErrTransportClosed)
		}

		c.met.DisconnectsTotal.WithLabelValues(variantLabel).Inc()
		if cause != nil {
			log.Info("BFF 连接已断开", "realm", c.realm.ServerName, "cause", cause)
		} else {
			log.Info("BFF 连接已关闭", "realm", c.realm.ServerName)
		}

		c.disconnectEvents.Emit(cause)
	})
}
