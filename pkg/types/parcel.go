// Package types 定义 realmnet 的基础类型
//
// 这是整个系统的最底层包，不依赖任何其他 realmnet 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
package types

import "math"

// ============================================================================
//                              Parcel - 世界网格坐标
// ============================================================================

// ParcelSize 每个 parcel 对应的世界坐标单位数
const ParcelSize = 20.0

// Parcel 世界网格中的一个离散地块坐标
//
// 用于邻近度计算（Chebyshev 距离）。
type Parcel struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

// ChebyshevDistance 计算到另一个 parcel 的 Chebyshev（棋盘）距离
//
// 两个坐标轴差值的最大值。网格邻近判定的标准度量。
func (p Parcel) ChebyshevDistance(other Parcel) int32 {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dz := p.Z - other.Z
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// Equal 比较两个 parcel 是否相同
func (p Parcel) Equal(other Parcel) bool {
	return p.X == other.X && p.Z == other.Z
}

// ============================================================================
//                              Position - 世界坐标
// ============================================================================

// Position 用户在世界中的三维坐标（世界单位）
type Position struct {
	X float64
	Y float64
	Z float64
}

// Parcel 返回该坐标所在的 parcel
func (pos Position) Parcel() Parcel {
	return Parcel{
		X: int32(math.Floor(pos.X / ParcelSize)),
		Z: int32(math.Floor(pos.Z / ParcelSize)),
	}
}
