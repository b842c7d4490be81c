// Package metrics 提供连接生命周期的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
//                              Metrics 实现
// ============================================================================

// Metrics realmnet 指标集合
//
// registerer 为 nil 时指标仍然可用但不注册（测试用）。
type Metrics struct {
	// ConnectionsTotal 按变体统计的连接建立次数
	ConnectionsTotal *prometheus.CounterVec

	// DisconnectsTotal 按变体统计的断连次数
	DisconnectsTotal *prometheus.CounterVec

	// HeartbeatsSentTotal 已发送心跳数
	HeartbeatsSentTotal prometheus.Counter

	// HeartbeatsSkippedTotal 因位置未知而跳过的心跳数
	HeartbeatsSkippedTotal prometheus.Counter

	// FramesDroppedTotal 按变体统计的丢弃帧数（解码失败）
	FramesDroppedTotal *prometheus.CounterVec

	// TopicsInTotal 按变体统计的入站话题消息数
	TopicsInTotal *prometheus.CounterVec

	// RealmSwitchesTotal realm 切换次数
	RealmSwitchesTotal prometheus.Counter

	// PeersKnown 当前已知对等方数量
	PeersKnown prometheus.Gauge
}

// New 创建指标集合并注册到 reg（nil 则不注册）
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realmnet",
			Name:      "connections_total",
			Help:      "传输连接建立成功次数",
		}, []string{"variant"}),
		DisconnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realmnet",
			Name:      "disconnects_total",
			Help:      "传输连接断开次数",
		}, []string{"variant"}),
		HeartbeatsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realmnet",
			Name:      "heartbeats_sent_total",
			Help:      "已发送心跳帧数",
		}),
		HeartbeatsSkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realmnet",
			Name:      "heartbeats_skipped_total",
			Help:      "因位置未知而跳过的心跳数",
		}),
		FramesDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realmnet",
			Name:      "frames_dropped_total",
			Help:      "解码失败被丢弃的入站帧数",
		}, []string{"variant"}),
		TopicsInTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "realmnet",
			Name:      "topics_in_total",
			Help:      "入站话题消息数",
		}, []string{"variant"}),
		RealmSwitchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "realmnet",
			Name:      "realm_switches_total",
			Help:      "realm 切换次数",
		}),
		PeersKnown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "realmnet",
			Name:      "peers_known",
			Help:      "当前已知对等方数量",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ConnectionsTotal,
			m.DisconnectsTotal,
			m.HeartbeatsSentTotal,
			m.HeartbeatsSkippedTotal,
			m.FramesDroppedTotal,
			m.TopicsInTotal,
			m.RealmSwitchesTotal,
			m.PeersKnown,
		)
	}

	return m
}

// Nop 返回未注册的指标集合（测试用）
func Nop() *Metrics {
	return New(nil)
}
