package types

import "strings"

// ============================================================================
//                              Realm - 服务器端点
// ============================================================================

// Realm presence 网络中一个可选择的服务器端点
//
// 由协议版本、主机名和服务器名共同标识。同一时刻最多有一个 Realm
// 处于"当前"状态；切换对消费者而言是原子的。
type Realm struct {
	// Protocol 协议标签（如 "v4" 表示旧版 coordinator，"bff" 表示新版）
	Protocol string

	// Hostname 服务器主机名（或 "local"/"remote" 别名）
	Hostname string

	// ServerName 服务器名称
	ServerName string
}

// Equal 比较两个 Realm 的身份字段
//
// 以 ServerName 和 Hostname 成对比较。重选结果与当前 Realm 相同时
// 不触发重连，避免分数噪声导致的来回切换。
func (r Realm) Equal(other Realm) bool {
	return r.ServerName == other.ServerName && r.Hostname == other.Hostname
}

// IsLegacy 判断该 Realm 是否使用旧版 broker/coordinator 协议
//
// "v1" 至 "v4" 标签选择旧版传输，其余（含 "bff"）选择 BFF 传输。
func (r Realm) IsLegacy() bool {
	switch strings.ToLower(r.Protocol) {
	case "v1", "v2", "v3", "v4":
		return true
	default:
		return false
	}
}

// String 返回 Realm 的可读表示
func (r Realm) String() string {
	return r.ServerName + "@" + r.Hostname + " (" + r.Protocol + ")"
}

// ============================================================================
//                              Candidate - 扫描候选
// ============================================================================

// Candidate 一次 realm 扫描返回的服务器广告
//
// 包含身份信息与上报的人口/位置数据。每次扫描整体替换，
// 扫描之间不可变，评分链看到的是一致的快照。
type Candidate struct {
	// Protocol 协议版本标签
	Protocol string `json:"protocol"`

	// ServerName 服务器名称
	ServerName string `json:"server_name"`

	// Hostname 主机名
	Hostname string `json:"hostname"`

	// UsersCount 上报的在线用户数
	UsersCount int `json:"users_count"`

	// MaxUsers 容量上限（0 表示未上报）
	MaxUsers int `json:"max_users,omitempty"`

	// UserParcels 各在线用户的已知 parcel 位置（可为空）
	UserParcels []Parcel `json:"user_parcels,omitempty"`
}

// Realm 返回该候选对应的 Realm 寻址信息
func (c Candidate) Realm() Realm {
	return Realm{
		Protocol:   c.Protocol,
		Hostname:   c.Hostname,
		ServerName: c.ServerName,
	}
}

// Key 返回候选的稳定排序键（ServerName 优先，Hostname 次之）
func (c Candidate) Key() string {
	return c.ServerName + "|" + c.Hostname
}
