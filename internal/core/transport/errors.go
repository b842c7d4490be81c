package transport

import "errors"

// 传输层错误分类
//
// 解码错误在解码点被吞掉（记日志后丢弃帧），认证与 socket 故障
// 不可本地恢复，总是触发完整拆除并通过断连通知暴露给编排层。
// 本层任何操作都不自动重试。
var (
	// ErrTransportClosed 在无存活 socket 时尝试发送
	ErrTransportClosed = errors.New("transport closed")

	// ErrDecode 入站帧格式错误（丢弃，非致命）
	ErrDecode = errors.New("malformed frame")

	// ErrAuthFailure 认证被服务器拒绝（致命，触发拆除）
	ErrAuthFailure = errors.New("validation rejected")

	// ErrAlreadyConnected 连接实例只能使用一次
	ErrAlreadyConnected = errors.New("connection already used")

	// ErrNotAssigned broker 别名尚未分配即尝试发送
	ErrNotAssigned = errors.New("coordinator alias not assigned")

	// ErrFrameTooLarge 帧超出大小上限
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrHandshakeTimeout 握手超时（认证/别名分配未在期限内完成）
	ErrHandshakeTimeout = errors.New("handshake timeout")
)
