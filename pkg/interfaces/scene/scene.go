// Package scene 定义场景/UI 协作方接口
//
// 场景协作方接收 realm 切换通知、对等方语音状态与加载界面可见性。
// 渲染与 3D 引擎桥接不在本库范围内。
package scene

import "github.com/realmnet/go-realmnet/pkg/types"

// Notifier 场景/UI 通知接口
type Notifier interface {
	// OnRealmChanged realm 切换完成
	OnRealmChanged(ev types.RealmChangedEvent)

	// OnPeerTalking 对等方语音活动状态变更
	OnPeerTalking(ev types.PeerTalkingEvent)

	// OnLoadingScreen 加载界面可见性变更
	OnLoadingScreen(visible bool)
}

// NopNotifier 空实现，未接入场景层时使用
type NopNotifier struct{}

func (NopNotifier) OnRealmChanged(types.RealmChangedEvent) {}
func (NopNotifier) OnPeerTalking(types.PeerTalkingEvent)   {}
func (NopNotifier) OnLoadingScreen(bool)                   {}
