// Package broker 实现旧版 Broker/Coordinator 传输变体
//
// 旧协议（协议标签 v1–v4）：服务端在 socket 建立后下发 WELCOME
// 分配数字别名，客户端回复 CONNECT 注册；此后 TOPIC_FW /
// TOPIC_IDENTITY_FW / PING 的消息体原样转发给订阅者，不在
// 本层区分话题身份。
package broker

import (
	"bytes"
	"fmt"

	"github.com/realmnet/go-realmnet/internal/core/transport"
)

// ============================================================================
//                              消息种类
// ============================================================================

// Kind 旧协议消息种类标签
type Kind uint64

const (
	// KindWelcome 服务端下发的别名分配
	KindWelcome Kind = 1

	// KindConnect 客户端的注册应答
	KindConnect Kind = 2

	// KindTopicFW 转发的话题消息
	KindTopicFW Kind = 3

	// KindTopicIdentityFW 转发的带身份话题消息
	KindTopicIdentityFW Kind = 4

	// KindPing 服务端 ping
	KindPing Kind = 5
)

// ============================================================================
//                              帧定义
// ============================================================================

// Frame 旧协议消息帧（封闭联合体）
type Frame interface {
	kind() Kind
}

// Welcome 别名分配
type Welcome struct {
	// Alias 分配给本客户端的数字别名
	Alias uint64
}

// Connect 注册应答（from=已分配别名，to=0 即协调器本身）
type Connect struct {
	From uint64
	To   uint64
}

// TopicFW 转发的话题消息（体不在本层解码）
type TopicFW struct {
	Raw []byte
}

// TopicIdentityFW 转发的带身份话题消息
type TopicIdentityFW struct {
	Raw []byte
}

// Ping 服务端 ping
type Ping struct {
	Raw []byte
}

// Unrecognized 未知种类（记日志后丢弃，不作为解码错误）
type Unrecognized struct {
	RawKind uint64
}

func (Welcome) kind() Kind         { return KindWelcome }
func (Connect) kind() Kind         { return KindConnect }
func (TopicFW) kind() Kind         { return KindTopicFW }
func (TopicIdentityFW) kind() Kind { return KindTopicIdentityFW }
func (Ping) kind() Kind            { return KindPing }
func (Unrecognized) kind() Kind    { return 0 }

// ============================================================================
//                              编码
// ============================================================================

// Encode 把帧编码为单个二进制消息
func Encode(f Frame) []byte {
	buf := &bytes.Buffer{}
	transport.WriteUvarint(buf, uint64(f.kind()))

	switch m := f.(type) {
	case Welcome:
		transport.WriteUvarint(buf, m.Alias)
	case Connect:
		transport.WriteUvarint(buf, m.From)
		transport.WriteUvarint(buf, m.To)
	case TopicFW:
		buf.Write(m.Raw)
	case TopicIdentityFW:
		buf.Write(m.Raw)
	case Ping:
		buf.Write(m.Raw)
	}
	return buf.Bytes()
}

// ============================================================================
//                              解码
// ============================================================================

// Decode 解码一帧
//
// 未知种类标签映射为 Unrecognized 而非错误；只有帧头或字段
// 本身损坏才返回解码错误。
func Decode(data []byte) (Frame, error) {
	r := bytes.NewReader(data)

	rawKind, err := transport.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read kind: %w", err)
	}

	switch Kind(rawKind) {
	case KindWelcome:
		alias, err := transport.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("welcome: %w", err)
		}
		return Welcome{Alias: alias}, nil

	case KindConnect:
		from, err := transport.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		to, err := transport.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		return Connect{From: from, To: to}, nil

	case KindTopicFW:
		return TopicFW{Raw: transport.ReadAll(r)}, nil

	case KindTopicIdentityFW:
		return TopicIdentityFW{Raw: transport.ReadAll(r)}, nil

	case KindPing:
		return Ping{Raw: transport.ReadAll(r)}, nil

	default:
		return Unrecognized{RawKind: rawKind}, nil
	}
}
