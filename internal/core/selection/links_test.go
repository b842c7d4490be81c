package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmnet/go-realmnet/internal/config"
	selectionif "github.com/realmnet/go-realmnet/pkg/interfaces/selection"
	"github.com/realmnet/go-realmnet/pkg/types"
)

// fixedAdjuster 按候选名固定分数（测试 margin 规则用）
type fixedAdjuster struct {
	scores map[string]int
}

func (f *fixedAdjuster) Adjust(c *types.Candidate, _ int) int {
	return f.scores[c.ServerName]
}

func newCtx(adj selectionif.ScoreAdjuster, parcel *types.Parcel, candidates ...types.Candidate) *selectionif.Context {
	return &selectionif.Context{
		Candidates: candidates,
		UserParcel: parcel,
		Adjuster:   adj,
	}
}

func someParcel() *types.Parcel {
	p := types.Parcel{X: 0, Z: 0}
	return &p
}

// 修正后分数 40 vs 25：领先 15 ≥ margin 10，link 给出决策
func TestMarginRuleConfident(t *testing.T) {
	cfg := config.DefaultSelectionConfig()
	link := NewClosePeersScoreLink(cfg)

	adj := &fixedAdjuster{scores: map[string]int{"alpha": 40, "beta": 25}}
	ctx := newCtx(adj, someParcel(),
		types.Candidate{ServerName: "alpha", Hostname: "a.example.org", UserParcels: []types.Parcel{{}}},
		types.Candidate{ServerName: "beta", Hostname: "b.example.org", UserParcels: []types.Parcel{{}}},
	)

	picked, ok := link.Pick(ctx)
	require.True(t, ok)
	assert.Equal(t, "alpha", picked.ServerName)
}

// 32 vs 28：领先 4 < margin 10，link 弃权
func TestMarginRuleNotConfident(t *testing.T) {
	cfg := config.DefaultSelectionConfig()
	link := NewClosePeersScoreLink(cfg)

	adj := &fixedAdjuster{scores: map[string]int{"alpha": 32, "beta": 28}}
	ctx := newCtx(adj, someParcel(),
		types.Candidate{ServerName: "alpha", Hostname: "a.example.org", UserParcels: []types.Parcel{{}}},
		types.Candidate{ServerName: "beta", Hostname: "b.example.org", UserParcels: []types.Parcel{{}}},
	)

	_, ok := link.Pick(ctx)
	assert.False(t, ok)
}

func TestClosePeersScoreCounting(t *testing.T) {
	cfg := config.DefaultSelectionConfig() // baseScore 40, 距离 6, margin 10

	user := types.Parcel{X: 0, Z: 0}
	near := types.Candidate{
		ServerName: "near", Hostname: "n.example.org",
		// 20 个邻近用户 → 40+20=60
		UserParcels: manyParcelsNear(20),
	}
	far := types.Candidate{
		ServerName: "far", Hostname: "f.example.org",
		// 位置已知但都在邻域外 → 40+0=40
		UserParcels: []types.Parcel{{X: 100, Z: 100}},
	}
	unknown := types.Candidate{
		ServerName: "unknown", Hostname: "u.example.org",
		// 无已知位置 → 0
	}

	link := NewClosePeersScoreLink(cfg)
	picked, ok := link.Pick(newCtx(nil, &user, far, near, unknown))
	require.True(t, ok)
	assert.Equal(t, "near", picked.ServerName)
}

func TestClosePeersScoreNoUserParcelAbstains(t *testing.T) {
	cfg := config.DefaultSelectionConfig()
	link := NewClosePeersScoreLink(cfg)

	_, ok := link.Pick(newCtx(nil, nil,
		types.Candidate{ServerName: "alpha", UserParcels: []types.Parcel{{}}}))
	assert.False(t, ok)
}

func TestAllPeersScoreFullnessCutoff(t *testing.T) {
	cfg := config.DefaultSelectionConfig() // cutoff 0.95

	crowded := types.Candidate{ServerName: "crowded", Hostname: "c.example.org", UsersCount: 98, MaxUsers: 100}
	busy := types.Candidate{ServerName: "busy", Hostname: "b.example.org", UsersCount: 50, MaxUsers: 100}
	quiet := types.Candidate{ServerName: "quiet", Hostname: "q.example.org", UsersCount: 2, MaxUsers: 100}

	link := NewAllPeersScoreLink(cfg)
	// crowded ≥95% 满载记 0 分；busy 50 领先 quiet 2 超过 margin
	picked, ok := link.Pick(newCtx(nil, nil, crowded, busy, quiet))
	require.True(t, ok)
	assert.Equal(t, "busy", picked.ServerName)
}

func TestLoadBalancingPicksLowestOccupancy(t *testing.T) {
	cfg := config.DefaultSelectionConfig() // 相对阈值 0.15

	empty := types.Candidate{ServerName: "empty", Hostname: "e.example.org", UsersCount: 5, MaxUsers: 100}
	packed := types.Candidate{ServerName: "packed", Hostname: "p.example.org", UsersCount: 90, MaxUsers: 100}

	link := NewLoadBalancingLink(cfg)
	picked, ok := link.Pick(newCtx(nil, nil, packed, empty))
	require.True(t, ok)
	assert.Equal(t, "empty", picked.ServerName)

	// 占用率几乎相同 → 弃权
	a := types.Candidate{ServerName: "a", Hostname: "a.example.org", UsersCount: 50, MaxUsers: 100}
	b := types.Candidate{ServerName: "b", Hostname: "b.example.org", UsersCount: 52, MaxUsers: 100}
	_, ok = link.Pick(newCtx(nil, nil, a, b))
	assert.False(t, ok)
}

func TestLatencyDeduction(t *testing.T) {
	registry, err := NewLatencyRegistry(16)
	require.NoError(t, err)

	slow := types.Candidate{ServerName: "slow", Hostname: "s.example.org"}
	fast := types.Candidate{ServerName: "fast", Hostname: "f.example.org"}

	registry.Record(slow.Key(), 2*time.Second)
	registry.Record(fast.Key(), 100*time.Millisecond)

	adj := NewLatencyDeduction(registry, 25)

	// slow: 100 - 25*2 = 50; fast: 100 - 25*0.1 = 97（取整）
	assert.Equal(t, 50, adj.Adjust(&slow, 100))
	assert.Equal(t, 97, adj.Adjust(&fast, 100))

	// 无样本不扣减
	noSample := types.Candidate{ServerName: "new", Hostname: "n.example.org"}
	assert.Equal(t, 100, adj.Adjust(&noSample, 100))
}

// 确定性：同分候选按稳定排序键决出同一胜者
func TestDeterministicTieBreak(t *testing.T) {
	cfg := config.DefaultSelectionConfig()
	cfg.ScoreMargin = 0
	link := NewAllPeersScoreLink(cfg)

	a := types.Candidate{ServerName: "aaa", Hostname: "h.example.org", UsersCount: 10, MaxUsers: 100}
	b := types.Candidate{ServerName: "bbb", Hostname: "h.example.org", UsersCount: 10, MaxUsers: 100}

	for i := 0; i < 10; i++ {
		picked, ok := link.Pick(newCtx(nil, nil, b, a))
		require.True(t, ok)
		assert.Equal(t, "aaa", picked.ServerName)
	}
}

func manyParcelsNear(n int) []types.Parcel {
	parcels := make([]types.Parcel, n)
	for i := range parcels {
		parcels[i] = types.Parcel{X: int32(i % 3), Z: int32(i % 5)}
	}
	return parcels
}
