package selector

import (
	"context"
	"net/http"
	"time"
)

// ============================================================================
//                              LatencyProber - 延迟探测
// ============================================================================

// LatencyProber 测量到候选 realm 的往返延迟
type LatencyProber interface {
	// Probe 返回一次延迟样本
	Probe(ctx context.Context, hostname string) (time.Duration, error)
}

// ProberFunc 函数适配器
type ProberFunc func(ctx context.Context, hostname string) (time.Duration, error)

// Probe 实现 LatencyProber
func (f ProberFunc) Probe(ctx context.Context, hostname string) (time.Duration, error) {
	return f(ctx, hostname)
}

// ============================================================================
//                              HTTPProber 默认实现
// ============================================================================

// HTTPProber 通过 HTTP HEAD 请求测量延迟
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPProber 创建 HTTP 延迟探测器
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Probe 对候选主机发起 HEAD 请求并计时
//
// 任何 HTTP 响应（含 4xx/5xx）都算探测成功：要测的是网络往返，
// 不是服务健康。
func (p *HTTPProber) Probe(ctx context.Context, hostname string) (time.Duration, error) {
	url := hostname
	if len(url) < 7 || (url[:7] != "http://" && (len(url) < 8 || url[:8] != "https://")) {
		url = "https://" + hostname
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()

	return time.Since(start), nil
}
