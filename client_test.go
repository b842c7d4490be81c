package realmnet

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmnet/go-realmnet/internal/core/comms"
	"github.com/realmnet/go-realmnet/pkg/types"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()

	opts = append(opts,
		WithMetricsRegisterer(prometheus.NewRegistry()),
		WithAutoConnect(false),
	)
	client, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Stop(context.Background()) })
	return client
}

func TestClientLifecycle(t *testing.T) {
	client := newTestClient(t)
	assert.Equal(t, StateIdle, client.State())

	require.NoError(t, client.StartWithContext(context.Background()))
	assert.Equal(t, StateRunning, client.State())
	assert.ErrorIs(t, client.StartWithContext(context.Background()), ErrAlreadyStarted)

	assert.False(t, client.PeerID().IsEmpty())
	assert.Equal(t, types.ConnStateIdle, client.ConnectionState())

	require.NoError(t, client.Stop(context.Background()))
	assert.Equal(t, StateStopped, client.State())
	require.NoError(t, client.Stop(context.Background()))

	assert.ErrorIs(t, client.StartWithContext(context.Background()), ErrClientClosed)
}

func TestClientRequiresStart(t *testing.T) {
	client := newTestClient(t)

	_, err := client.SetCandidates(nil)
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, client.SendTopic("chat", []byte("x")), ErrNotStarted)
	assert.ErrorIs(t, client.SetTopics([]string{"chat"}), ErrNotStarted)
}

func TestClientSelectsRealmFromCandidates(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.StartWithContext(context.Background()))

	decisions := make(chan types.Realm, 1)
	client.OnDecision(func(r types.Realm) { decisions <- r })

	// 邻近度 link 因没有用户位置而弃权，人口 link 选出用户更多的 beta
	realm, err := client.SetCandidates([]types.Candidate{
		{Protocol: "v5", ServerName: "alpha", Hostname: "alpha.example.org", UsersCount: 10, MaxUsers: 100},
		{Protocol: "v5", ServerName: "beta", Hostname: "beta.example.org", UsersCount: 90, MaxUsers: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, "beta", realm.ServerName)

	select {
	case decided := <-decisions:
		assert.True(t, realm.Equal(decided))
	default:
		t.Fatal("未收到选择器决策事件")
	}

	current, ok := client.CurrentRealm()
	require.True(t, ok)
	assert.True(t, realm.Equal(current))

	// 未建立传输时，话题发送显式报错
	assert.ErrorIs(t, client.SendTopic("chat", []byte("x")), comms.ErrNoActiveContext)
}

func TestClientUserConfig(t *testing.T) {
	client := newTestClient(t, WithUserConfig(UserConfig{
		Selection: &SelectionUserConfig{ScoreMargin: 20},
		Comms:     &CommsUserConfig{HeartbeatIntervalSeconds: 3},
	}))

	assert.Equal(t, 20, client.opts.config.Selection.ScoreMargin)
	assert.Equal(t, "3s", client.opts.config.Comms.HeartbeatInterval.String())
	// 未覆盖的字段保持默认值
	assert.Equal(t, 40, client.opts.config.Selection.BaseScore)
}
