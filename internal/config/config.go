// Package config 提供 realmnet 配置管理层
//
// config 包负责：
// - 定义内部配置结构
// - 提供默认值
// - 配置校验
//
// 用户配置（realmnet.UserConfig）会被转换为此结构。
package config

import (
	"time"
)

// Config 内部配置结构
type Config struct {
	// Selection 评分链配置
	Selection SelectionConfig

	// Comms 通信上下文配置
	Comms CommsConfig

	// Transport 传输配置
	Transport TransportConfig
}

// DefaultConfig 返回全部默认值的配置
func DefaultConfig() *Config {
	return &Config{
		Selection: DefaultSelectionConfig(),
		Comms:     DefaultCommsConfig(),
		Transport: DefaultTransportConfig(),
	}
}

// ============================================================================
//                              Selection 配置
// ============================================================================

// SelectionConfig 评分链配置
type SelectionConfig struct {
	// BaseScore 有已知用户位置的候选的基础分
	BaseScore int

	// ClosePeersDistance 邻近判定的最大 Chebyshev 距离（parcel 单位）
	ClosePeersDistance int32

	// ScoreMargin 胜者领先幅度阈值；不足时 link 弃权
	ScoreMargin int

	// LatencyDeductionsMultiplier 每秒延迟扣减的分数
	LatencyDeductionsMultiplier float64

	// FullnessCutoff 人口评分的满载阈值（usersCount/maxUsers ≥ 该值记 0 分）
	FullnessCutoff float64

	// LoadBalanceRelativeMargin 负载均衡 link 的占用率相对领先阈值
	LoadBalanceRelativeMargin float64

	// LatencySampleCacheSize 延迟样本缓存条目上限
	LatencySampleCacheSize int

	// ReselectInterval 周期性重选间隔（0 表示禁用周期重选）
	ReselectInterval time.Duration
}

// DefaultSelectionConfig 评分链默认配置
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		BaseScore:                   40,
		ClosePeersDistance:          6,
		ScoreMargin:                 10,
		LatencyDeductionsMultiplier: 25,
		FullnessCutoff:              0.95,
		LoadBalanceRelativeMargin:   0.15,
		LatencySampleCacheSize:      128,
		ReselectInterval:            2 * time.Minute,
	}
}

// ============================================================================
//                              Comms 配置
// ============================================================================

// CommsConfig 通信上下文配置
type CommsConfig struct {
	// HeartbeatInterval 心跳发送间隔
	HeartbeatInterval time.Duration

	// PeerExpiry 对等方状态过期时间（超过未见即清理）
	PeerExpiry time.Duration
}

// DefaultCommsConfig 通信上下文默认配置
func DefaultCommsConfig() CommsConfig {
	return CommsConfig{
		HeartbeatInterval: 10 * time.Second,
		PeerExpiry:        5 * time.Minute,
	}
}

// ============================================================================
//                              Transport 配置
// ============================================================================

// TransportConfig 传输配置
type TransportConfig struct {
	// DialTimeout socket 建立超时
	DialTimeout time.Duration

	// HandshakeTimeout 握手（认证/别名分配）超时
	HandshakeTimeout time.Duration

	// Subprotocol socket 子协议协商标识（两个变体相同）
	Subprotocol string

	// MaxFrameSize 单帧大小上限（字节）
	MaxFrameSize uint32

	// WriteTimeout 单次发送超时
	WriteTimeout time.Duration
}

// DefaultTransportConfig 传输默认配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		DialTimeout:      10 * time.Second,
		HandshakeTimeout: 15 * time.Second,
		Subprotocol:      "comms",
		MaxFrameSize:     10 * 1024 * 1024,
		WriteTimeout:     5 * time.Second,
	}
}
