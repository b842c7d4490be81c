package types

// ============================================================================
//                              事件类型
// ============================================================================

// RealmChangedEvent Realm 切换完成事件
//
// 发给场景/UI 协作方，payload 为新 Realm 的寻址信息。
type RealmChangedEvent struct {
	// Previous 之前的 Realm（首次连接时为 nil）
	Previous *Realm

	// Current 新的当前 Realm
	Current Realm
}

// IslandChangedEvent 服务器下发的空间聚簇（island）变更事件
type IslandChangedEvent struct {
	// ConnStr 描述当前 island 的不透明连接串
	ConnStr string
}

// PeerTalkingEvent 对等方语音活动状态变更事件
type PeerTalkingEvent struct {
	// Peer 对等方 ID
	Peer PeerID

	// Talking 是否正在讲话
	Talking bool
}
