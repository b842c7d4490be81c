package comms

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/metrics"
	identityif "github.com/realmnet/go-realmnet/pkg/interfaces/identity"
	positionif "github.com/realmnet/go-realmnet/pkg/interfaces/position"
	sceneif "github.com/realmnet/go-realmnet/pkg/interfaces/scene"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.Config
	Signer  identityif.Signer
	Metrics *metrics.Metrics

	// Position 位置协作方（可选）
	Position positionif.Provider `optional:"true"`

	// Scene 场景/UI 协作方（可选）
	Scene sceneif.Notifier `optional:"true"`

	// Clock 注入时钟（可选，测试用）
	Clock clock.Clock `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Factory TransportFactory
	Manager *Manager
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	clk := input.Clock
	if clk == nil {
		clk = clock.New()
	}

	factory := NewTransportFactory(input.Config, input.Signer, input.Position, clk, input.Metrics)
	mgr := NewManager(input.Config, factory, input.Scene, clk, input.Metrics)

	return ModuleOutput{
		Factory: factory,
		Manager: mgr,
	}
}

// Module 是 comms 的 Fx 模块
var Module = fx.Module("comms",
	fx.Provide(ProvideServices),
	fx.Invoke(func(lc fx.Lifecycle, m *Manager) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				m.Start()
				return nil
			},
			OnStop: func(context.Context) error { return m.Close() },
		})
	}),
)
