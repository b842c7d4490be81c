package selection

import (
	"github.com/realmnet/go-realmnet/internal/config"
	selectionif "github.com/realmnet/go-realmnet/pkg/interfaces/selection"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              ClosePeersScoreLink
// ============================================================================

// ClosePeersScoreLink 对等方邻近度评分 link
//
// 有已知用户位置的候选得分为 baseScore + 邻近用户数；
// 无已知位置的候选得 0 分。用户自身位置未知时整个 link 弃权。
type ClosePeersScoreLink struct {
	cfg config.SelectionConfig
}

// NewClosePeersScoreLink 创建邻近度评分 link
func NewClosePeersScoreLink(cfg config.SelectionConfig) *ClosePeersScoreLink {
	return &ClosePeersScoreLink{cfg: cfg}
}

var _ selectionif.Link = (*ClosePeersScoreLink)(nil)

// Name link 名称
func (l *ClosePeersScoreLink) Name() string { return "close-peers-score" }

// Pick 按邻近用户数择优
func (l *ClosePeersScoreLink) Pick(ctx *selectionif.Context) (*types.Candidate, bool) {
	if ctx.UserParcel == nil {
		return nil, false
	}
	user := *ctx.UserParcel

	return pickFirstByScore(ctx, l.cfg.ScoreMargin, func(c *types.Candidate) int {
		if len(c.UserParcels) == 0 {
			return 0
		}
		return l.cfg.BaseScore + CountParcelsCloseTo(user, c.UserParcels, l.cfg.ClosePeersDistance)
	})
}

// ============================================================================
//                              AllPeersScoreLink
// ============================================================================

// AllPeersScoreLink 总人口评分 link
//
// 得分即上报的用户数；接近满载（≥ FullnessCutoff）的候选得 0 分，
// 避免把用户挤进即将拒绝连接的服务器。
type AllPeersScoreLink struct {
	cfg config.SelectionConfig
}

// NewAllPeersScoreLink 创建总人口评分 link
func NewAllPeersScoreLink(cfg config.SelectionConfig) *AllPeersScoreLink {
	return &AllPeersScoreLink{cfg: cfg}
}

var _ selectionif.Link = (*AllPeersScoreLink)(nil)

// Name link 名称
func (l *AllPeersScoreLink) Name() string { return "all-peers-score" }

// Pick 按总人口择优
func (l *AllPeersScoreLink) Pick(ctx *selectionif.Context) (*types.Candidate, bool) {
	return pickFirstByScore(ctx, l.cfg.ScoreMargin, func(c *types.Candidate) int {
		if c.MaxUsers > 0 && float64(c.UsersCount) >= l.cfg.FullnessCutoff*float64(c.MaxUsers) {
			return 0
		}
		return c.UsersCount
	})
}

// ============================================================================
//                              LoadBalancingLink
// ============================================================================

// LoadBalancingLink 负载均衡 link
//
// 选择占用率（usersCount/maxUsers）最低的候选；占用率领先第二名
// 不足相对阈值时弃权。未上报容量的候选视为占用率 1。
type LoadBalancingLink struct {
	cfg config.SelectionConfig
}

// NewLoadBalancingLink 创建负载均衡 link
func NewLoadBalancingLink(cfg config.SelectionConfig) *LoadBalancingLink {
	return &LoadBalancingLink{cfg: cfg}
}

var _ selectionif.Link = (*LoadBalancingLink)(nil)

// Name link 名称
func (l *LoadBalancingLink) Name() string { return "load-balancing" }

// Pick 按占用率择优
func (l *LoadBalancingLink) Pick(ctx *selectionif.Context) (*types.Candidate, bool) {
	// 占用率换算成千分制分数后复用统一的择优逻辑，
	// margin 按相对阈值换算
	const scale = 1000
	margin := int(l.cfg.LoadBalanceRelativeMargin * scale)

	return pickFirstByScore(ctx, margin, func(c *types.Candidate) int {
		occupancy := 1.0
		if c.MaxUsers > 0 {
			occupancy = float64(c.UsersCount) / float64(c.MaxUsers)
			if occupancy > 1 {
				occupancy = 1
			}
		}
		return int((1 - occupancy) * scale)
	})
}
