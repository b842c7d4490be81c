package selection

import (
	selectionif "github.com/realmnet/go-realmnet/pkg/interfaces/selection"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              Chain - 评分链
// ============================================================================

// Chain 有序的评分 link 列表
//
// 顺序即优先级：第一个给出决策的 link 胜出。对相同输入
// 决策是确定的（link 纯函数 + 稳定排序键）。
type Chain struct {
	links []selectionif.Link
}

// NewChain 按给定顺序组装评分链
func NewChain(links ...selectionif.Link) *Chain {
	return &Chain{links: links}
}

// Pick 依次运行各 link，返回第一个确定决策
//
// 所有 link 都弃权时返回 ok=false（由选择器走确定性回退）。
func (ch *Chain) Pick(ctx *selectionif.Context) (*types.Candidate, bool) {
	for _, link := range ch.links {
		if picked, ok := link.Pick(ctx); ok {
			log.Debug("link 给出决策",
				"link", link.Name(),
				"picked", picked.ServerName)
			return picked, true
		}
		log.Debug("link 弃权", "link", link.Name())
	}
	return nil, false
}

// Links 返回链中的 link（只读）
func (ch *Chain) Links() []selectionif.Link {
	return ch.links
}
