package comms

import (
	"github.com/benbjohnson/clock"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/metrics"
	"github.com/realmnet/go-realmnet/internal/core/transport/bff"
	"github.com/realmnet/go-realmnet/internal/core/transport/broker"
	identityif "github.com/realmnet/go-realmnet/pkg/interfaces/identity"
	positionif "github.com/realmnet/go-realmnet/pkg/interfaces/position"
	transportif "github.com/realmnet/go-realmnet/pkg/interfaces/transport"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              传输工厂
// ============================================================================

// TransportFactory 按 realm 构造对应变体的传输连接
//
// 每次 realm 切换都构造新实例，没有复用或重连状态。
type TransportFactory interface {
	New(realm types.Realm) transportif.Connection
}

// TransportFactoryFunc 函数适配器
type TransportFactoryFunc func(realm types.Realm) transportif.Connection

func (f TransportFactoryFunc) New(realm types.Realm) transportif.Connection {
	return f(realm)
}

// defaultFactory 按协议标签选择变体：v1–v4 → 旧版 coordinator，
// 其余 → BFF
type defaultFactory struct {
	cfg      *config.Config
	signer   identityif.Signer
	position positionif.Provider
	clk      clock.Clock
	met      *metrics.Metrics
}

// NewTransportFactory 创建默认传输工厂
func NewTransportFactory(
	cfg *config.Config,
	signer identityif.Signer,
	position positionif.Provider,
	clk clock.Clock,
	met *metrics.Metrics,
) TransportFactory {
	return &defaultFactory{
		cfg:      cfg,
		signer:   signer,
		position: position,
		clk:      clk,
		met:      met,
	}
}

func (f *defaultFactory) New(realm types.Realm) transportif.Connection {
	if realm.IsLegacy() {
		return broker.New(realm, broker.Options{
			Config:  f.cfg.Transport,
			Metrics: f.met,
		})
	}
	return bff.New(realm, bff.Options{
		Config:            f.cfg.Transport,
		HeartbeatInterval: f.cfg.Comms.HeartbeatInterval,
		Signer:            f.signer,
		Position:          f.position,
		Clock:             f.clk,
		Metrics:           f.met,
	})
}
