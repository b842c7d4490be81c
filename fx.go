package realmnet

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/realmnet/go-realmnet/internal/core/comms"
	"github.com/realmnet/go-realmnet/internal/core/identity"
	"github.com/realmnet/go-realmnet/internal/core/metrics"
	"github.com/realmnet/go-realmnet/internal/core/selection"
	"github.com/realmnet/go-realmnet/internal/core/selector"
	identityif "github.com/realmnet/go-realmnet/pkg/interfaces/identity"
	positionif "github.com/realmnet/go-realmnet/pkg/interfaces/position"
	sceneif "github.com/realmnet/go-realmnet/pkg/interfaces/scene"
)

// buildFxApp 构建 Fx 应用
//
// 装配顺序（按依赖）：
//  1. 配置与凭据注入
//  2. metrics → selection → selector
//  3. comms（传输工厂 + 上下文管理器）
//  4. 用户自定义 Fx 选项
func buildFxApp(opts *options, client *Client) (*fx.App, error) {
	if err := opts.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cred := opts.credential
	if cred == nil {
		var err error
		cred, err = identity.NewCredential()
		if err != nil {
			return nil, fmt.Errorf("generate credential: %w", err)
		}
	}

	modules := []fx.Option{
		// 配置与凭据注入
		fx.Supply(opts.config),
		fx.Provide(func() identityif.Signer { return cred }),

		// 核心模块
		metrics.Module,
		selection.Module,
		selector.Module,
		comms.Module,
	}

	// 可选协作方（只在用户接入时提供，模块侧以 optional 标签消费）
	if opts.position != nil {
		modules = append(modules, fx.Provide(func() positionif.Provider { return opts.position }))
	}
	if opts.scene != nil {
		modules = append(modules, fx.Provide(func() sceneif.Notifier { return opts.scene }))
	}
	if opts.clock != nil {
		modules = append(modules, fx.Provide(func() clock.Clock { return opts.clock }))
	}
	if opts.registerer != nil {
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return opts.registerer }))
	}

	modules = append(modules, opts.extraFx...)

	modules = append(modules,
		fx.Populate(&client.selector, &client.manager),
		fx.WithLogger(func() fxevent.Logger {
			if opts.verboseFx {
				logger, err := zap.NewDevelopment()
				if err == nil {
					return &fxevent.ZapLogger{Logger: logger}
				}
			}
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	client.signer = cred
	return fx.New(modules...), nil
}
