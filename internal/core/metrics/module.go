package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Registerer Prometheus 注册器（可选；缺省使用默认注册器）
	Registerer prometheus.Registerer `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Metrics *Metrics
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	reg := input.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return ModuleOutput{Metrics: New(reg)}
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(ProvideServices),
)
