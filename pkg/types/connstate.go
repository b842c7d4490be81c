package types

// ============================================================================
//                              ConnState - 连接状态
// ============================================================================

// ConnState 传输连接状态
//
// Closed 可从任意状态因错误到达。没有"重连"状态：
// 每次重连尝试都会创建新的状态机实例。
type ConnState int32

const (
	// ConnStateIdle 初始状态，尚未连接
	ConnStateIdle ConnState = iota
	// ConnStateConnecting 正在建立 socket 连接
	ConnStateConnecting
	// ConnStateAuthenticating 已连接，等待认证挑战/应答完成（仅 BFF）
	ConnStateAuthenticating
	// ConnStateOpen 连接已就绪，可收发消息
	ConnStateOpen
	// ConnStateClosing 正在关闭
	ConnStateClosing
	// ConnStateClosed 已关闭（终态）
	ConnStateClosed
)

// String 返回连接状态的字符串表示
func (s ConnState) String() string {
	switch s {
	case ConnStateIdle:
		return "idle"
	case ConnStateConnecting:
		return "connecting"
	case ConnStateAuthenticating:
		return "authenticating"
	case ConnStateOpen:
		return "open"
	case ConnStateClosing:
		return "closing"
	case ConnStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
