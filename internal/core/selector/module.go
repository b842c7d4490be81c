package selector

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/selection"
	positionif "github.com/realmnet/go-realmnet/pkg/interfaces/position"
	selectionif "github.com/realmnet/go-realmnet/pkg/interfaces/selection"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config
	Chain    *selection.Chain
	Adjuster selectionif.ScoreAdjuster
	Registry *selection.LatencyRegistry

	// Position 位置协作方（可选）
	Position positionif.Provider `optional:"true"`

	// Clock 注入时钟（可选，测试用）
	Clock clock.Clock `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Selector *Selector
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	sel := New(input.Config.Selection, input.Chain, input.Adjuster, input.Registry, Options{
		Position: input.Position,
		Prober:   NewHTTPProber(5 * time.Second),
		Clock:    input.Clock,
	})
	return ModuleOutput{Selector: sel}
}

// Module 是 selector 的 Fx 模块
var Module = fx.Module("selector",
	fx.Provide(ProvideServices),
	fx.Invoke(func(lc fx.Lifecycle, s *Selector) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error { return s.Start(ctx) },
			OnStop:  func(context.Context) error { return s.Stop() },
		})
	}),
)
