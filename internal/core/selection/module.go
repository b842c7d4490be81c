// Package selection 的 Fx 模块装配
package selection

import (
	"go.uber.org/fx"

	"github.com/realmnet/go-realmnet/internal/config"
	selectionif "github.com/realmnet/go-realmnet/pkg/interfaces/selection"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置
	Config *config.Config
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Chain 默认评分链：邻近度 → 总人口 → 负载均衡
	Chain *Chain

	// Registry 延迟样本缓存
	Registry *LatencyRegistry

	// Adjuster 延迟扣减修正器
	Adjuster selectionif.ScoreAdjuster
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := input.Config.Selection

	registry, err := NewLatencyRegistry(cfg.LatencySampleCacheSize)
	if err != nil {
		return ModuleOutput{}, err
	}

	chain := NewChain(
		NewClosePeersScoreLink(cfg),
		NewAllPeersScoreLink(cfg),
		NewLoadBalancingLink(cfg),
	)

	return ModuleOutput{
		Chain:    chain,
		Registry: registry,
		Adjuster: NewLatencyDeduction(registry, cfg.LatencyDeductionsMultiplier),
	}, nil
}

// Module 是 selection 的 Fx 模块
var Module = fx.Module("selection",
	fx.Provide(ProvideServices),
)
