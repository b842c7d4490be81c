package realmnet

import "errors"

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 客户端生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 客户端未启动
	ErrNotStarted = errors.New("client not started")

	// ErrAlreadyStarted 客户端已启动
	ErrAlreadyStarted = errors.New("client already started")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("client closed")

	// ────────────────────────────────────────────────────────────────────────
	// Realm 相关错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNoRealmSelected 尚未选出 realm（候选集为空或未投喂）
	ErrNoRealmSelected = errors.New("no realm selected")

	// ErrNotConnected 没有活跃的传输连接
	ErrNotConnected = errors.New("not connected to any realm")
)
