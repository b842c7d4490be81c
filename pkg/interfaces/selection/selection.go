// Package selection 定义候选评分链接口
//
// 评分链是一个有序的独立策略（link）列表：每个 link 要么在候选集中
// 给出确定的胜者，要么弃权交给下一个 link。link 之间没有共享可变
// 状态，每次调用相互独立；链中顺序即优先级。
package selection

import "github.com/realmnet/go-realmnet/pkg/types"

// ============================================================================
//                              Context - 评分输入
// ============================================================================

// Context 一次评分调用的输入快照
//
// Candidates 在一次评分过程中不被修改，链看到一致的快照。
type Context struct {
	// Candidates 当前候选集
	Candidates []types.Candidate

	// UserParcel 本地用户最近已知的 parcel（未知时为 nil）
	UserParcel *types.Parcel

	// Adjuster 横切分数修正器（延迟扣减等），对每个 link 一致生效
	Adjuster ScoreAdjuster
}

// Adjust 应用修正器；未配置时返回原始分
func (c *Context) Adjust(candidate *types.Candidate, raw int) int {
	if c.Adjuster == nil {
		return raw
	}
	return c.Adjuster.Adjust(candidate, raw)
}

// ============================================================================
//                              ScoreAdjuster - 横切修正
// ============================================================================

// ScoreAdjuster 对 link 的原始分施加统一修正
//
// 保证无论哪个 link 生效，延迟惩罚等横切因素都以相同方式计入。
type ScoreAdjuster interface {
	Adjust(candidate *types.Candidate, raw int) int
}

// AdjusterFunc 函数适配器
type AdjusterFunc func(candidate *types.Candidate, raw int) int

// Adjust 实现 ScoreAdjuster
func (f AdjusterFunc) Adjust(candidate *types.Candidate, raw int) int {
	return f(candidate, raw)
}

// ============================================================================
//                              Link - 决策单元
// ============================================================================

// Link 一个具名的纯决策单元
//
// Pick 返回选中的候选，或 ok=false 表示弃权（交给链中下一个 link）。
// 对相同输入必须返回相同决策。
type Link interface {
	// Name link 名称（日志用）
	Name() string

	// Pick 在候选集中决策
	Pick(ctx *Context) (picked *types.Candidate, ok bool)
}
