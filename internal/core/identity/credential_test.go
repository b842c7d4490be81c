package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	cred, err := NewCredential()
	require.NoError(t, err)

	challenge := []byte("abc")
	signed, err := cred.Sign(challenge)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	// 签名必须绑定到挑战的精确字节
	require.NoError(t, Verify(cred.PublicKey(), challenge, signed))
	assert.Error(t, Verify(cred.PublicKey(), []byte("abd"), signed))
}

func TestSignEmptyChallenge(t *testing.T) {
	cred, err := NewCredential()
	require.NoError(t, err)

	_, err = cred.Sign(nil)
	assert.ErrorIs(t, err, ErrEmptyChallenge)
}

func TestPeerIDStable(t *testing.T) {
	cred, err := NewCredential()
	require.NoError(t, err)

	restored, err := NewCredentialFromBytes(cred.Bytes())
	require.NoError(t, err)

	assert.Equal(t, cred.PeerID(), restored.PeerID())
	assert.False(t, cred.PeerID().IsEmpty())
}

func TestDistinctKeysDistinctIDs(t *testing.T) {
	a, err := NewCredential()
	require.NoError(t, err)
	b, err := NewCredential()
	require.NoError(t, err)

	assert.NotEqual(t, a.PeerID(), b.PeerID())
}
