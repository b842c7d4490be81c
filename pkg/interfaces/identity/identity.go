// Package identity 定义身份协作方接口
//
// 身份协作方提供签名凭据：对 BFF 认证挑战的不透明字节串产生签名应答。
// 密钥的来源（钱包、本地文件、内存随机）由实现决定。
package identity

import "github.com/realmnet/go-realmnet/pkg/types"

// ============================================================================
//                              Signer 接口
// ============================================================================

// Signer 签名凭据
type Signer interface {
	// PeerID 返回该凭据对应的对等方 ID
	PeerID() types.PeerID

	// Sign 对不透明挑战字节串签名，返回签名负载的文本形式
	//
	// BFF 握手时服务器下发挑战，客户端必须对挑战字节原样签名。
	Sign(challenge []byte) (string, error)
}
