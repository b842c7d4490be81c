// Package selection 实现候选评分链
//
// 评分链（chain-of-responsibility）把多个启发式按优先级组合：
// 对等方邻近度、总人口、负载均衡。每个 link 要么给出确定胜者，
// 要么弃权交给下一个。横切的延迟扣减对所有 link 一致生效。
package selection

import (
	"github.com/realmnet/go-realmnet/internal/util/logger"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// 包级别日志实例
var log = logger.Logger("selection")

// ============================================================================
//                              评分原语
// ============================================================================

// CountParcelsCloseTo 统计落在参考位置邻域内的 parcel 数
//
// 邻域按 Chebyshev（网格）距离 maxDistance 判定。纯函数，
// O(n)，空列表返回 0。
func CountParcelsCloseTo(reference types.Parcel, parcels []types.Parcel, maxDistance int32) int {
	count := 0
	for _, p := range parcels {
		if reference.ChebyshevDistance(p) <= maxDistance {
			count++
		}
	}
	return count
}
