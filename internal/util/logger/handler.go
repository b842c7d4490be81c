package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// output 全局输出目标；SetOutput 可在任意时刻重定向所有子系统的日志
var output = struct {
	sync.RWMutex
	w io.Writer
}{w: os.Stderr}

// sink 每次写入时查找当前输出目标，
// 保证 logger 创建之后调用 SetOutput 依然生效
type sink struct{}

func (sink) Write(p []byte) (int, error) {
	output.RLock()
	w := output.w
	output.RUnlock()
	return w.Write(p)
}

// subsystemHandler 给每条记录打上 subsystem 标签，并允许运行时调级
type subsystemHandler struct {
	level *slog.LevelVar
	inner slog.Handler
}

// newHandler 创建子系统 Handler
func newHandler(subsystem string, level slog.Level, format LogFormat) slog.Handler {
	lv := new(slog.LevelVar)
	lv.Set(level)

	opts := &slog.HandlerOptions{
		Level:       lv,
		AddSource:   ConfigFromEnv().AddSource,
		ReplaceAttr: normalizeAttr,
	}

	var inner slog.Handler
	switch format {
	case FormatJSON:
		inner = slog.NewJSONHandler(sink{}, opts)
	default:
		inner = slog.NewTextHandler(sink{}, opts)
	}

	return &subsystemHandler{
		level: lv,
		inner: inner.WithAttrs([]slog.Attr{slog.String("subsystem", subsystem)}),
	}
}

// normalizeAttr 统一时间键为 ts，级别值为小写名称
func normalizeAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(lvl))
		}
	}
	return a
}

func (h *subsystemHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *subsystemHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *subsystemHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &subsystemHandler{level: h.level, inner: h.inner.WithAttrs(attrs)}
}

func (h *subsystemHandler) WithGroup(name string) slog.Handler {
	return &subsystemHandler{level: h.level, inner: h.inner.WithGroup(name)}
}

// SetLevel 运行时调整该子系统的日志级别
func (h *subsystemHandler) SetLevel(level slog.Level) {
	h.level.Set(level)
}

// levelName 返回级别的小写名称
func levelName(level slog.Level) string {
	switch {
	case level <= slog.LevelDebug:
		return "debug"
	case level <= slog.LevelInfo:
		return "info"
	case level <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// discardHandler 丢弃所有日志（测试用）
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// DiscardHandler 返回丢弃所有日志的 Handler
func DiscardHandler() slog.Handler {
	return discardHandler{}
}
