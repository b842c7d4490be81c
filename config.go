package realmnet

import (
	"time"

	"github.com/realmnet/go-realmnet/internal/config"
)

// UserConfig 用户配置结构
//
// 面向用户的简化配置，可以从 JSON 文件加载，内部转换为详细的
// 组件配置。零值字段保持默认值。
//
// 配置文件的读取由应用层（cmd/*）负责，库本身不做 I/O：
//
//	data, _ := os.ReadFile("config.json")
//	var cfg realmnet.UserConfig
//	json.Unmarshal(data, &cfg)
//	client, _ := realmnet.New(realmnet.WithUserConfig(cfg))
type UserConfig struct {
	// Selection 评分链配置
	Selection *SelectionUserConfig `json:"selection,omitempty"`

	// Comms 通信配置
	Comms *CommsUserConfig `json:"comms,omitempty"`

	// Transport 传输配置
	Transport *TransportUserConfig `json:"transport,omitempty"`
}

// SelectionUserConfig 评分链用户配置
type SelectionUserConfig struct {
	// BaseScore 邻近度评分的基础分
	BaseScore int `json:"base_score,omitempty"`

	// ClosePeersDistance 邻近判定的最大距离（parcel 单位）
	ClosePeersDistance int32 `json:"close_peers_distance,omitempty"`

	// ScoreMargin 胜者领先幅度阈值
	ScoreMargin int `json:"score_margin,omitempty"`

	// LatencyDeductionsMultiplier 每秒延迟扣减的分数
	LatencyDeductionsMultiplier float64 `json:"latency_deductions_multiplier,omitempty"`

	// ReselectIntervalSeconds 周期性重选间隔（秒，0 保持默认）
	ReselectIntervalSeconds int `json:"reselect_interval_seconds,omitempty"`
}

// CommsUserConfig 通信用户配置
type CommsUserConfig struct {
	// HeartbeatIntervalSeconds 心跳间隔（秒）
	HeartbeatIntervalSeconds int `json:"heartbeat_interval_seconds,omitempty"`

	// PeerExpirySeconds 对等方状态过期时间（秒）
	PeerExpirySeconds int `json:"peer_expiry_seconds,omitempty"`
}

// TransportUserConfig 传输用户配置
type TransportUserConfig struct {
	// DialTimeoutSeconds socket 建立超时（秒）
	DialTimeoutSeconds int `json:"dial_timeout_seconds,omitempty"`

	// HandshakeTimeoutSeconds 握手超时（秒）
	HandshakeTimeoutSeconds int `json:"handshake_timeout_seconds,omitempty"`
}

// toInternal 把用户配置叠加到默认配置上
func (u UserConfig) toInternal() *config.Config {
	cfg := config.DefaultConfig()

	if s := u.Selection; s != nil {
		if s.BaseScore > 0 {
			cfg.Selection.BaseScore = s.BaseScore
		}
		if s.ClosePeersDistance > 0 {
			cfg.Selection.ClosePeersDistance = s.ClosePeersDistance
		}
		if s.ScoreMargin > 0 {
			cfg.Selection.ScoreMargin = s.ScoreMargin
		}
		if s.LatencyDeductionsMultiplier > 0 {
			cfg.Selection.LatencyDeductionsMultiplier = s.LatencyDeductionsMultiplier
		}
		if s.ReselectIntervalSeconds > 0 {
			cfg.Selection.ReselectInterval = time.Duration(s.ReselectIntervalSeconds) * time.Second
		}
	}

	if c := u.Comms; c != nil {
		if c.HeartbeatIntervalSeconds > 0 {
			cfg.Comms.HeartbeatInterval = time.Duration(c.HeartbeatIntervalSeconds) * time.Second
		}
		if c.PeerExpirySeconds > 0 {
			cfg.Comms.PeerExpiry = time.Duration(c.PeerExpirySeconds) * time.Second
		}
	}

	if t := u.Transport; t != nil {
		if t.DialTimeoutSeconds > 0 {
			cfg.Transport.DialTimeout = time.Duration(t.DialTimeoutSeconds) * time.Second
		}
		if t.HandshakeTimeoutSeconds > 0 {
			cfg.Transport.HandshakeTimeout = time.Duration(t.HandshakeTimeoutSeconds) * time.Second
		}
	}

	return cfg
}
