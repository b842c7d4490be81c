// Package transport 定义传输连接接口
//
// 两个线协议变体（BFF 与旧版 broker/coordinator）都实现 Connection。
// 订阅者应在 Connect 之前注册，通知按 socket 递交顺序逐个送达
// （每连接 FIFO，本层不引入重排或合批）。
package transport

import (
	"context"

	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              Connection 接口
// ============================================================================

// Connection 一条到 realm 的传输连接
//
// 一个实例只经历一次 Idle→…→Closed 的生命周期；重连由上层
// 创建新实例完成。Close 幂等。
type Connection interface {
	// Connect 建立连接并完成协议握手
	//
	// 返回时连接已可用（BFF：认证通过；broker：别名已分配且
	// CONNECT 已发出），或返回失败原因。
	Connect(ctx context.Context) error

	// State 返回当前连接状态
	State() types.ConnState

	// SendTopic 向指定话题发送消息
	//
	// socket 不存在或已关闭时返回 ErrTransportClosed 类错误，
	// 不被静默吞掉。
	SendTopic(topic string, payload []byte) error

	// SetTopics 声明感兴趣的话题集合（BFF 发送订阅帧；broker 无操作）
	SetTopics(topics []string) error

	// OnTopic 注册话题消息回调，返回取消函数
	OnTopic(fn func(types.TopicData)) (cancel func())

	// OnIslandChanged 注册 island 变更回调（仅 BFF 会触发）
	OnIslandChanged(fn func(types.IslandChangedEvent)) (cancel func())

	// OnDisconnect 注册断连回调；每个实例保证恰好触发一次
	OnDisconnect(fn func(err error)) (cancel func())

	// Close 关闭连接并释放资源（幂等）
	Close() error
}
