// Package identity 实现签名凭据
//
// 凭据基于 secp256k1 密钥对：对 BFF 认证挑战做 ECDSA 签名，
// 对等方 ID 由压缩公钥的 SHA256 哈希派生（Base58 文本形式）。
package identity

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"

	identityif "github.com/realmnet/go-realmnet/pkg/interfaces/identity"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrNilKey 密钥为空
	ErrNilKey = errors.New("nil private key")

	// ErrEmptyChallenge 挑战为空
	ErrEmptyChallenge = errors.New("empty challenge")

	// ErrInvalidSignature 签名校验失败
	ErrInvalidSignature = errors.New("invalid signature")
)

// ============================================================================
//                              Credential 实现
// ============================================================================

// Credential secp256k1 签名凭据
type Credential struct {
	key    *secp256k1.PrivateKey
	peerID types.PeerID
}

// 确保实现接口
var _ identityif.Signer = (*Credential)(nil)

// NewCredential 生成新的随机凭据
func NewCredential() (*Credential, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return NewCredentialFromKey(key)
}

// NewCredentialFromKey 从已有私钥创建凭据
func NewCredentialFromKey(key *secp256k1.PrivateKey) (*Credential, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	return &Credential{
		key:    key,
		peerID: PeerIDFromPublicKey(key.PubKey()),
	}, nil
}

// NewCredentialFromBytes 从序列化私钥创建凭据
func NewCredentialFromBytes(data []byte) (*Credential, error) {
	if len(data) != 32 {
		return nil, ErrNilKey
	}
	return NewCredentialFromKey(secp256k1.PrivKeyFromBytes(data))
}

// PeerID 返回凭据对应的对等方 ID
func (c *Credential) PeerID() types.PeerID {
	return c.peerID
}

// Sign 对挑战字节串签名
//
// 签名对象是挑战字节的 SHA256 摘要；返回 DER 序列化签名的
// Base58 文本形式，作为 VALIDATION 帧的负载。
func (c *Credential) Sign(challenge []byte) (string, error) {
	if len(challenge) == 0 {
		return "", ErrEmptyChallenge
	}

	digest := sha256.Sum256(challenge)
	sig := secpecdsa.Sign(c.key, digest[:])
	return base58.Encode(sig.Serialize()), nil
}

// PublicKey 返回公钥（校验方使用）
func (c *Credential) PublicKey() *secp256k1.PublicKey {
	return c.key.PubKey()
}

// Bytes 返回私钥的序列化形式（持久化用）
func (c *Credential) Bytes() []byte {
	return c.key.Serialize()
}

// ============================================================================
//                              校验与派生
// ============================================================================

// PeerIDFromPublicKey 从公钥派生对等方 ID
//
// SHA256(压缩公钥) 的 Base58 编码。保证 ID 与公钥一一对应。
func PeerIDFromPublicKey(pub *secp256k1.PublicKey) types.PeerID {
	hash := sha256.Sum256(pub.SerializeCompressed())
	return types.PeerID(base58.Encode(hash[:]))
}

// Verify 校验签名负载是否为指定公钥对挑战的签名
func Verify(pub *secp256k1.PublicKey, challenge []byte, signed string) error {
	raw, err := base58.Decode(signed)
	if err != nil {
		return ErrInvalidSignature
	}

	sig, err := secpecdsa.ParseDERSignature(raw)
	if err != nil {
		return ErrInvalidSignature
	}

	digest := sha256.Sum256(challenge)
	if !sig.Verify(digest[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}
