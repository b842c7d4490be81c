package selection

import (
	"sort"

	selectionif "github.com/realmnet/go-realmnet/pkg/interfaces/selection"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              按分数择优
// ============================================================================

// scoredCandidate 候选及其修正后分数
type scoredCandidate struct {
	candidate *types.Candidate
	score     int
}

// pickFirstByScore 按分数降序择优，带领先幅度判定
//
// 对每个候选计算 rawScore 并经 ctx.Adjust 修正后降序排序
// （同分按稳定排序键升序保证确定性）。榜首领先第二名不足
// margin 时视为不自信，返回 ok=false 交给下一个 link，
// 避免近乎平分时来回切换。
func pickFirstByScore(ctx *selectionif.Context, margin int, rawScore func(c *types.Candidate) int) (*types.Candidate, bool) {
	if len(ctx.Candidates) == 0 {
		return nil, false
	}

	scored := make([]scoredCandidate, 0, len(ctx.Candidates))
	for i := range ctx.Candidates {
		c := &ctx.Candidates[i]
		scored = append(scored, scoredCandidate{
			candidate: c,
			score:     ctx.Adjust(c, rawScore(c)),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].candidate.Key() < scored[j].candidate.Key()
	})

	if len(scored) == 1 {
		return scored[0].candidate, true
	}

	if scored[0].score-scored[1].score < margin {
		return nil, false
	}
	return scored[0].candidate, true
}
