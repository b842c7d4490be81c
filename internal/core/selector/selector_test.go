package selector

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmnet/go-realmnet/internal/config"
	"github.com/realmnet/go-realmnet/internal/core/selection"
	positionif "github.com/realmnet/go-realmnet/pkg/interfaces/position"
	"github.com/realmnet/go-realmnet/pkg/types"
)

func newTestSelector(t *testing.T, opts Options) *Selector {
	t.Helper()
	cfg := config.DefaultSelectionConfig()
	cfg.ReselectInterval = 0

	registry, err := selection.NewLatencyRegistry(cfg.LatencySampleCacheSize)
	require.NoError(t, err)

	chain := selection.NewChain(
		selection.NewClosePeersScoreLink(cfg),
		selection.NewAllPeersScoreLink(cfg),
		selection.NewLoadBalancingLink(cfg),
	)

	return New(cfg, chain, selection.NewLatencyDeduction(registry, cfg.LatencyDeductionsMultiplier), registry, opts)
}

func fixedPosition(pos types.Position) positionif.Provider {
	return positionif.ProviderFunc(func() (types.Position, bool) { return pos, true })
}

func TestPickEmptyCandidates(t *testing.T) {
	s := newTestSelector(t, Options{})
	_, err := s.Pick()
	assert.ErrorIs(t, err, ErrNoCandidates)
}

// 候选集非空时回退必定给出结果
func TestFallbackNeverEmpty(t *testing.T) {
	s := newTestSelector(t, Options{})

	// 两个同样无聊的候选：所有 link 都会弃权
	realm, err := s.SetCandidates([]types.Candidate{
		{ServerName: "bbb", Hostname: "b.example.org", Protocol: "bff", UsersCount: 10, MaxUsers: 100},
		{ServerName: "aaa", Hostname: "a.example.org", Protocol: "bff", UsersCount: 10, MaxUsers: 100},
	})
	require.NoError(t, err)

	// 回退按稳定排序键取第一个
	assert.Equal(t, "aaa", realm.ServerName)
}

// 重选幂等：相同候选集与位置，重复选择返回同一 realm 且不再通知
func TestPickIdempotent(t *testing.T) {
	s := newTestSelector(t, Options{Position: fixedPosition(types.Position{X: 10, Z: 10})})

	var notified int
	s.OnDecision(func(types.Realm) { notified++ })

	candidates := []types.Candidate{
		{ServerName: "popular", Hostname: "p.example.org", Protocol: "bff",
			UserParcels: []types.Parcel{{X: 0, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1}, {X: 1, Z: 0}, {X: 2, Z: 2}, {X: 0, Z: 2}, {X: 2, Z: 0}, {X: 1, Z: 2}, {X: 2, Z: 1}, {X: 3, Z: 3}, {X: 0, Z: 3}}},
		{ServerName: "empty", Hostname: "e.example.org", Protocol: "bff"},
	}

	first, err := s.SetCandidates(candidates)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := s.Pick()
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}

	assert.Equal(t, 1, notified, "realm 未变化不应重复通知")
}

func TestUnchangedRealmNoReDecision(t *testing.T) {
	s := newTestSelector(t, Options{})

	var decisions []types.Realm
	s.OnDecision(func(r types.Realm) { decisions = append(decisions, r) })

	candidates := []types.Candidate{
		{ServerName: "solo", Hostname: "s.example.org", Protocol: "v4"},
	}

	_, err := s.SetCandidates(candidates)
	require.NoError(t, err)

	// 新扫描返回同一 realm（协议标签变化不影响身份比较）
	_, err = s.SetCandidates([]types.Candidate{
		{ServerName: "solo", Hostname: "s.example.org", Protocol: "bff", UsersCount: 3},
	})
	require.NoError(t, err)

	require.Len(t, decisions, 1)
	assert.Equal(t, "solo", decisions[0].ServerName)
}

func TestRefreshLatenciesRecordsSamples(t *testing.T) {
	cfg := config.DefaultSelectionConfig()
	registry, err := selection.NewLatencyRegistry(cfg.LatencySampleCacheSize)
	require.NoError(t, err)

	chain := selection.NewChain(selection.NewAllPeersScoreLink(cfg))

	probed := make(map[string]int)
	prober := ProberFunc(func(_ context.Context, hostname string) (time.Duration, error) {
		probed[hostname]++
		return 42 * time.Millisecond, nil
	})

	s := New(cfg, chain, nil, registry, Options{Prober: prober})
	_, err = s.SetCandidates([]types.Candidate{
		{ServerName: "a", Hostname: "a.example.org"},
		{ServerName: "b", Hostname: "b.example.org"},
	})
	require.NoError(t, err)

	require.NoError(t, s.RefreshLatencies(context.Background()))

	assert.Equal(t, 1, probed["a.example.org"])
	assert.Equal(t, 1, probed["b.example.org"])

	sample, ok := registry.Lookup(types.Candidate{ServerName: "a", Hostname: "a.example.org"}.Key())
	require.True(t, ok)
	assert.Equal(t, 42*time.Millisecond, sample)
}

// 周期 tick 触发重选
func TestPeriodicReselect(t *testing.T) {
	cfg := config.DefaultSelectionConfig()
	cfg.ReselectInterval = time.Minute

	registry, err := selection.NewLatencyRegistry(cfg.LatencySampleCacheSize)
	require.NoError(t, err)
	chain := selection.NewChain(selection.NewAllPeersScoreLink(cfg))

	mock := clock.NewMock()
	s := New(cfg, chain, nil, registry, Options{Clock: mock})
	defer func() { _ = s.Stop() }()

	require.NoError(t, s.Start(context.Background()))
	// 等待重选循环建好 ticker 再推进 mock 时钟
	time.Sleep(20 * time.Millisecond)

	_, err = s.SetCandidates([]types.Candidate{
		{ServerName: "only", Hostname: "o.example.org", Protocol: "bff"},
	})
	require.NoError(t, err)

	var decisions int
	s.OnDecision(func(types.Realm) { decisions++ })

	// 推进两个周期：realm 不变，不应产生新决策
	mock.Add(2 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, decisions)

	current, ok := s.CurrentRealm()
	require.True(t, ok)
	assert.Equal(t, "only", current.ServerName)
}

func TestStopRejectsPick(t *testing.T) {
	s := newTestSelector(t, Options{})
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())

	_, err := s.Pick()
	assert.ErrorIs(t, err, ErrClosed)
}
