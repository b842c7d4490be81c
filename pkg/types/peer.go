package types

import "time"

// ============================================================================
//                              PeerID - 对等方标识
// ============================================================================

// PeerID 对等方唯一标识符的文本形式
//
// 由身份公钥派生（压缩公钥的 SHA256 哈希，Base58 编码）。
// 远端对等方的 ID 随 Topic 消息原样到达，本层不做解析。
type PeerID string

// EmptyPeerID 空对等方 ID
const EmptyPeerID PeerID = ""

// IsEmpty 检查 PeerID 是否为空
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}

// ShortString 返回 PeerID 的短字符串表示（日志用）
func (id PeerID) ShortString() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// ============================================================================
//                              TopicData - 话题消息
// ============================================================================

// TopicData 握手完成后交换的话题消息封装
//
// Payload 对选择层不透明，由消费层解释。
type TopicData struct {
	// FromPeer 来源对等方 ID
	FromPeer PeerID

	// Topic 话题名（旧版传输统一为 "LEGACY"）
	Topic string

	// Payload 原始消息体
	Payload []byte
}

// ============================================================================
//                              PeerInfo - 对等方运行时状态
// ============================================================================

// PeerInfo 单个对等方的运行时状态快照
//
// 由 CommsContext 独占维护，消费者通过访问器读取副本。
type PeerInfo struct {
	// ID 对等方 ID
	ID PeerID

	// Identity 对等方的身份名（由消费层提供）
	Identity string

	// Talking 语音活动标志
	Talking bool

	// LastSeen 最近一次收到该对等方消息的时间
	LastSeen time.Time
}
