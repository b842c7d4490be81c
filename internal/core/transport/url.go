package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// ============================================================================
//                              地址解析
// ============================================================================

// 固定别名地址
const (
	localBFFAddr  = "ws://127.0.0.1:5002/ws-bff"
	remoteBFFAddr = "wss://explorer-bff.decentraland.io/ws-bff"

	// bffPath BFF socket 的固定子路径
	bffPath = "/ws-bff"

	// brokerPath 旧版 coordinator 的固定子路径
	brokerPath = "/connect"
)

// ResolveBFFURL 把候选主机名解析为 BFF socket 地址
//
// 解析规则：
//   - 已知别名 "local"/"remote" 映射到固定地址；
//   - 其余主机名补全显式 scheme（缺省 https），追加固定子路径，
//     再把 scheme 重写为 socket 传输等价形式（http→ws, https→wss）。
func ResolveBFFURL(hostname string) (string, error) {
	switch hostname {
	case "local":
		return localBFFAddr, nil
	case "remote":
		return remoteBFFAddr, nil
	}
	return normalizeSocketURL(hostname, bffPath)
}

// ResolveBrokerURL 把候选主机名解析为 coordinator socket 地址
func ResolveBrokerURL(hostname string) (string, error) {
	return normalizeSocketURL(hostname, brokerPath)
}

// normalizeSocketURL 补全 scheme、追加子路径并重写为 ws(s)
func normalizeSocketURL(hostname, path string) (string, error) {
	raw := hostname
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid realm hostname %q: %w", hostname, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid realm hostname %q: unsupported scheme %q", hostname, u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}
