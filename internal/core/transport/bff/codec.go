// Package bff 实现 BFF 传输连接状态机
//
// 二进制帧协议：每个 websocket 二进制消息承载一帧，帧头为
// uvarint 消息种类标签，字段按长度前缀编码。认证采用
// 挑战/应答：服务器下发 OPEN 挑战，客户端签名后以 VALIDATION
// 应答。
package bff

import (
	"bytes"

	"github.com/realmnet/go-realmnet/internal/core/transport"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              消息种类
// ============================================================================

// Kind 帧种类标签
type Kind uint64

const (
	// KindHeartbeat 心跳（时间 + 可选位置）
	KindHeartbeat Kind = 1
	// KindOpen 服务器下发的认证挑战
	KindOpen Kind = 2
	// KindValidation 客户端签名应答
	KindValidation Kind = 3
	// KindValidationOK 认证通过
	KindValidationOK Kind = 4
	// KindValidationFailure 认证被拒绝
	KindValidationFailure Kind = 5
	// KindTopic 话题消息
	KindTopic Kind = 6
	// KindSubscription 话题订阅声明（空格连接的话题列表）
	KindSubscription Kind = 7
	// KindIslandChanges 空间聚簇变更
	KindIslandChanges Kind = 8
)

// ============================================================================
//                              帧变体（闭合标签联合）
// ============================================================================

// Frame 一个已解码的入站/出站帧
//
// 闭合变体集合：未知标签解码为 Unrecognized，而不是动态回退。
type Frame interface {
	kind() Kind
}

// Heartbeat 心跳帧
type Heartbeat struct {
	// TimeMS 客户端时间（Unix 毫秒）
	TimeMS uint64
	// HasPosition 是否携带位置
	HasPosition bool
	// Position 世界坐标（HasPosition 为 true 时有效）
	Position types.Position
}

// Open 认证挑战帧
type Open struct {
	// Challenge 不透明挑战字节串
	Challenge []byte
}

// Validation 签名应答帧
type Validation struct {
	// SignedPayload 对挑战的签名负载（文本形式）
	SignedPayload string
}

// ValidationOK 认证通过帧
type ValidationOK struct{}

// ValidationFailure 认证拒绝帧
type ValidationFailure struct{}

// Topic 话题消息帧
type Topic struct {
	Topic  string
	PeerID types.PeerID
	Body   []byte
}

// Subscription 订阅声明帧
type Subscription struct {
	// TopicList 空格连接的话题列表
	TopicList string
}

// IslandChanges 空间聚簇变更帧
type IslandChanges struct {
	ConnStr string
}

// Unrecognized 未知标签帧
type Unrecognized struct {
	RawKind uint64
}

func (Heartbeat) kind() Kind         { return KindHeartbeat }
func (Open) kind() Kind              { return KindOpen }
func (Validation) kind() Kind        { return KindValidation }
func (ValidationOK) kind() Kind      { return KindValidationOK }
func (ValidationFailure) kind() Kind { return KindValidationFailure }
func (Topic) kind() Kind             { return KindTopic }
func (Subscription) kind() Kind      { return KindSubscription }
func (IslandChanges) kind() Kind     { return KindIslandChanges }
func (Unrecognized) kind() Kind      { return 0 }

// ============================================================================
//                              编码
// ============================================================================

// Encode 把帧编码为线格式
func Encode(f Frame) []byte {
	var buf bytes.Buffer
	transport.WriteUvarint(&buf, uint64(f.kind()))

	switch m := f.(type) {
	case Heartbeat:
		transport.WriteUvarint(&buf, m.TimeMS)
		transport.WriteBool(&buf, m.HasPosition)
		if m.HasPosition {
			transport.WriteFloat64(&buf, m.Position.X)
			transport.WriteFloat64(&buf, m.Position.Y)
			transport.WriteFloat64(&buf, m.Position.Z)
		}
	case Open:
		transport.WriteBytes(&buf, m.Challenge)
	case Validation:
		transport.WriteString(&buf, m.SignedPayload)
	case ValidationOK, ValidationFailure:
		// 无字段
	case Topic:
		transport.WriteString(&buf, m.Topic)
		transport.WriteString(&buf, string(m.PeerID))
		transport.WriteBytes(&buf, m.Body)
	case Subscription:
		transport.WriteString(&buf, m.TopicList)
	case IslandChanges:
		transport.WriteString(&buf, m.ConnStr)
	}

	return buf.Bytes()
}

// ============================================================================
//                              解码
// ============================================================================

// Decode 解码一帧
//
// 头或体解码失败都返回 ErrDecode 类错误；调用方记日志后丢弃帧，
// 不关闭连接。未知种类返回 Unrecognized 变体而非错误。
func Decode(data []byte) (Frame, error) {
	r := bytes.NewReader(data)

	rawKind, err := transport.ReadUvarint(r)
	if err != nil {
		return nil, err
	}

	switch Kind(rawKind) {
	case KindHeartbeat:
		var hb Heartbeat
		if hb.TimeMS, err = transport.ReadUvarint(r); err != nil {
			return nil, err
		}
		if hb.HasPosition, err = transport.ReadBool(r); err != nil {
			return nil, err
		}
		if hb.HasPosition {
			if hb.Position.X, err = transport.ReadFloat64(r); err != nil {
				return nil, err
			}
			if hb.Position.Y, err = transport.ReadFloat64(r); err != nil {
				return nil, err
			}
			if hb.Position.Z, err = transport.ReadFloat64(r); err != nil {
				return nil, err
			}
		}
		return hb, nil

	case KindOpen:
		challenge, err := transport.ReadBytes(r)
		if err != nil {
			return nil, err
		}
		return Open{Challenge: challenge}, nil

	case KindValidation:
		payload, err := transport.ReadString(r)
		if err != nil {
			return nil, err
		}
		return Validation{SignedPayload: payload}, nil

	case KindValidationOK:
		return ValidationOK{}, nil

	case KindValidationFailure:
		return ValidationFailure{}, nil

	case KindTopic:
		var msg Topic
		if msg.Topic, err = transport.ReadString(r); err != nil {
			return nil, err
		}
		peer, err := transport.ReadString(r)
		if err != nil {
			return nil, err
		}
		msg.PeerID = types.PeerID(peer)
		if msg.Body, err = transport.ReadBytes(r); err != nil {
			return nil, err
		}
		return msg, nil

	case KindSubscription:
		topics, err := transport.ReadString(r)
		if err != nil {
			return nil, err
		}
		return Subscription{TopicList: topics}, nil

	case KindIslandChanges:
		connStr, err := transport.ReadString(r)
		if err != nil {
			return nil, err
		}
		return IslandChanges{ConnStr: connStr}, nil

	default:
		return Unrecognized{RawKind: rawKind}, nil
	}
}
