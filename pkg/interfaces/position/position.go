// Package position 定义位置协作方接口
//
// 位置协作方提供本地用户当前的三维坐标（可能不可用，例如场景尚未加载）。
package position

import "github.com/realmnet/go-realmnet/pkg/types"

// Provider 本地用户位置来源
type Provider interface {
	// Position 返回当前坐标；位置未知时 ok 为 false
	Position() (pos types.Position, ok bool)
}

// ProviderFunc 函数适配器
type ProviderFunc func() (types.Position, bool)

// Position 实现 Provider
func (f ProviderFunc) Position() (types.Position, bool) {
	return f()
}
