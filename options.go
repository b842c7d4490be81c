package realmnet

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/identity"
	positionif "github.com/realmnet/go-realmnet/pkg/interfaces/position"
	sceneif "github.com/realmnet/go-realmnet/pkg/interfaces/scene"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	// 身份凭据（nil 时生成随机凭据）
	credential *identity.Credential

	// 协作方接口
	position positionif.Provider
	scene    sceneif.Notifier

	// 初始候选集（Start 时投喂）
	candidates []types.Candidate

	// 指标注册器（nil 时使用默认注册器）
	registerer prometheus.Registerer

	// 时钟（测试用）
	clock clock.Clock

	// autoConnect 选中 realm 后自动建立传输连接
	autoConnect bool

	// verboseFx 输出 Fx 装配日志（调试用）
	verboseFx bool

	// extraFx 用户自定义 Fx 选项
	extraFx []fx.Option
}

func defaultOptions() *options {
	return &options{
		config:      config.DefaultConfig(),
		autoConnect: true,
	}
}

// WithUserConfig 应用 JSON 用户配置
func WithUserConfig(cfg UserConfig) Option {
	return func(o *options) error {
		o.config = cfg.toInternal()
		return nil
	}
}

// WithCredential 使用指定的签名凭据
func WithCredential(cred *identity.Credential) Option {
	return func(o *options) error {
		o.credential = cred
		return nil
	}
}

// WithCredentialBytes 从序列化私钥恢复签名凭据
func WithCredentialBytes(data []byte) Option {
	return func(o *options) error {
		cred, err := identity.NewCredentialFromBytes(data)
		if err != nil {
			return err
		}
		o.credential = cred
		return nil
	}
}

// WithPosition 接入本地位置协作方
//
// 不接入时 BFF 心跳全部跳过，邻近度评分 link 弃权。
func WithPosition(p positionif.Provider) Option {
	return func(o *options) error {
		o.position = p
		return nil
	}
}

// WithSceneNotifier 接入场景/UI 协作方
func WithSceneNotifier(n sceneif.Notifier) Option {
	return func(o *options) error {
		o.scene = n
		return nil
	}
}

// WithCandidates 设置初始候选集（Start 时立即触发一次选择）
func WithCandidates(candidates []types.Candidate) Option {
	return func(o *options) error {
		o.candidates = append([]types.Candidate(nil), candidates...)
		return nil
	}
}

// WithMetricsRegisterer 使用指定的 Prometheus 注册器
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithClock 注入时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithAutoConnect 控制选中 realm 后是否自动建立传输连接
//
// 默认开启；关闭后由调用方显式调用 ConnectRealm。
func WithAutoConnect(enable bool) Option {
	return func(o *options) error {
		o.autoConnect = enable
		return nil
	}
}

// WithVerboseFxLogging 输出 Fx 装配日志（调试用）
func WithVerboseFxLogging() Option {
	return func(o *options) error {
		o.verboseFx = true
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项（扩展用）
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.extraFx = append(o.extraFx, opts...)
		return nil
	}
}
