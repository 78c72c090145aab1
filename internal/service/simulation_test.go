package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roulette-simulator/internal/config"
	"roulette-simulator/internal/metrics"
	"roulette-simulator/internal/model"
	"roulette-simulator/internal/roulette"
	"roulette-simulator/internal/roulette/strategy"
)

type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) Create(ctx context.Context, run *model.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *MockRunStore) ListRecent(ctx context.Context, limit int) ([]*model.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Run), args.Error(1)
}

func testSimConfig() config.SimulationConfig {
	return config.SimulationConfig{
		Variant:        "EUROPEAN_STYLE",
		SpotGeneration: "RANDOM",
		InitialBalance: 1000,
		MinBet:         1,
		MaxBet:         100,
		Strategies:     []string{"fixed"},
		Rounds:         10,
	}
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		SessionCacheSize: 16,
		SessionTTL:       time.Minute,
		LockTimeout:      50 * time.Millisecond,
	}
}

func newTestService(store RunStore) *SimulationService {
	return NewSimulationService(testSimConfig(), testServerConfig(), strategy.NewDefaultRegistry(), store)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestStrategies(t *testing.T) {
	svc := newTestService(nil)

	assert.Equal(t, []StrategyInfo{
		{ID: "cocomo", Name: "Cocomo Strategy"},
		{ID: "fixed", Name: "Fixed Bet Strategy"},
		{ID: "martingale", Name: "Martingale Strategy"},
	}, svc.Strategies())
}

func TestCreateSession_Defaults(t *testing.T) {
	svc := newTestService(nil)

	snap, err := svc.CreateSession(context.Background(), SessionRequest{})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, snap.ID)
	assert.Equal(t, "EUROPEAN_STYLE", snap.Variant)
	assert.Equal(t, "RANDOM", snap.SpotGeneration)
	assert.True(t, snap.InitialBalance.Equal(dec("1000")))
	assert.NotZero(t, snap.Seed)
	require.Len(t, snap.Lanes, 1)
	assert.Equal(t, "fixed", snap.Lanes[0].StrategyID)
	assert.True(t, snap.Lanes[0].Live)
	assert.Equal(t, 0, snap.Lanes[0].Round)
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestCreateSession_Overrides(t *testing.T) {
	svc := newTestService(nil)

	snap, err := svc.CreateSession(context.Background(), SessionRequest{
		Variant:        "AMERICAN_STYLE",
		SpotGeneration: "ROTATION_WHEEL",
		InitialBalance: dec("50"),
		Strategies:     []string{"martingale", "cocomo", "martingale"},
		Seed:           7,
	})
	require.NoError(t, err)

	assert.Equal(t, "AMERICAN_STYLE", snap.Variant)
	assert.Equal(t, "ROTATION_WHEEL", snap.SpotGeneration)
	assert.Equal(t, uint64(7), snap.Seed)
	require.Len(t, snap.Lanes, 2, "duplicate strategies collapse into one lane")
	assert.Equal(t, "martingale", snap.Lanes[0].StrategyID)
	assert.Equal(t, "cocomo", snap.Lanes[1].StrategyID)
	assert.True(t, snap.Lanes[1].Stats.CurrentBalance.Equal(dec("50")))
}

func TestCreateSession_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  SessionRequest
	}{
		{"unknown strategy", SessionRequest{Strategies: []string{"labouchere"}}},
		{"bad variant", SessionRequest{Variant: "FRENCH"}},
		{"bad generation", SessionRequest{SpotGeneration: "LOADED"}},
		{"negative balance", SessionRequest{InitialBalance: dec("-5")}},
		{"max below min", SessionRequest{MinBet: dec("10"), MaxBet: dec("5")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil)
			_, err := svc.CreateSession(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Equal(t, 0, svc.ActiveSessions())
		})
	}
}

func TestRunRounds_RedOnlyFixedWinsEveryRound(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{SpotGeneration: "RANDOM_RED_ONLY", Seed: 1})
	require.NoError(t, err)

	res, err := svc.RunRounds(ctx, snap.ID, 5)
	require.NoError(t, err)

	require.Len(t, res.Lanes, 1)
	assert.Equal(t, 5, res.Lanes[0].Played)
	assert.False(t, res.Lanes[0].WentBroke)
	for _, r := range res.Lanes[0].Results {
		assert.True(t, r.Spot.IsRed())
		assert.True(t, r.Won)
	}

	lane := res.Session.Lanes[0]
	assert.Equal(t, 5, lane.Round)
	assert.Len(t, lane.History, 5)
	assert.True(t, lane.Stats.CurrentBalance.Equal(dec("1005")), lane.Stats.CurrentBalance.String())
	assert.Equal(t, 5, lane.Stats.WonCount)
	assert.Equal(t, 5, res.Session.Rounds)
}

func TestRunRounds_StopsWhenBroke(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{
		SpotGeneration: "RANDOM_BLACK_ONLY",
		InitialBalance: dec("10"),
	})
	require.NoError(t, err)

	broke := metrics.StrategyBrokeTotal.WithLabelValues("fixed")
	brokeBefore := testutil.ToFloat64(broke)
	rounds := metrics.RoundsTotal.WithLabelValues("fixed")
	roundsBefore := testutil.ToFloat64(rounds)

	res, err := svc.RunRounds(ctx, snap.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Lanes[0].Played)
	assert.True(t, res.Lanes[0].WentBroke)
	assert.False(t, res.Session.Lanes[0].Live)
	assert.True(t, res.Session.Lanes[0].Stats.CurrentBalance.IsZero())
	assert.Equal(t, brokeBefore+1, testutil.ToFloat64(broke))
	assert.Equal(t, roundsBefore+10, testutil.ToFloat64(rounds))

	res, err = svc.RunRounds(ctx, snap.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Lanes[0].Played)
	assert.False(t, res.Lanes[0].WentBroke)
	assert.Equal(t, brokeBefore+1, testutil.ToFloat64(broke))
}

func TestRunRounds_TrimsReturnedResults(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{SpotGeneration: "RANDOM_RED_ONLY"})
	require.NoError(t, err)

	res, err := svc.RunRounds(ctx, snap.ID, MaxReturnedResults+50)
	require.NoError(t, err)
	assert.Equal(t, MaxReturnedResults+50, res.Lanes[0].Played)
	assert.Len(t, res.Lanes[0].Results, MaxReturnedResults)
	assert.True(t, res.Lanes[0].Results[MaxReturnedResults-1].Balance.Equal(dec("1150")))
}

func TestRunRounds_LanesShareSpots(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{
		InitialBalance: dec("1000000"),
		Strategies:     []string{"fixed", "martingale", "cocomo"},
		Seed:           42,
	})
	require.NoError(t, err)

	res, err := svc.RunRounds(ctx, snap.ID, 30)
	require.NoError(t, err)

	lanes := res.Session.Lanes
	require.Len(t, lanes, 3)
	assert.Equal(t, lanes[0].History, lanes[1].History)
	assert.Equal(t, lanes[0].History, lanes[2].History)
}

func TestRunRounds_InvalidCount(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{})
	require.NoError(t, err)

	_, err = svc.RunRounds(ctx, snap.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidRounds)

	_, err = svc.RunRounds(ctx, snap.ID, MaxRoundsPerCall+1)
	assert.ErrorIs(t, err, ErrInvalidRounds)
}

func TestRunRounds_UnknownSession(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.RunRounds(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionBusy(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{})
	require.NoError(t, err)

	svc.locks.Lock(snap.ID)
	_, err = svc.Snapshot(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrSessionBusy)
	svc.locks.Unlock(snap.ID)

	assert.Eventually(t, func() bool {
		_, err := svc.Snapshot(ctx, snap.ID)
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestRunRounds_CancelledContext(t *testing.T) {
	svc := newTestService(nil)

	snap, err := svc.CreateSession(context.Background(), SessionRequest{SpotGeneration: "RANDOM_RED_ONLY"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 100; i++ {
		_, err := svc.RunRounds(ctx, snap.ID, 1)
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrSessionBusy)
	}

	after, err := svc.Snapshot(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Lanes[0].Round, "no rounds are played once the caller is gone")
}

func TestReset_KeepsStrategyState(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{SpotGeneration: "RANDOM_RED_ONLY"})
	require.NoError(t, err)
	_, err = svc.RunRounds(ctx, snap.ID, 3)
	require.NoError(t, err)

	after, err := svc.Reset(ctx, snap.ID)
	require.NoError(t, err)

	lane := after.Lanes[0]
	assert.Equal(t, 0, lane.Round)
	assert.Empty(t, lane.History)
	assert.True(t, lane.Stats.CurrentBalance.Equal(dec("1003")))
	assert.Equal(t, 3, lane.Stats.BetCount)
}

func TestClose_PersistsRun(t *testing.T) {
	store := new(MockRunStore)
	svc := newTestService(store)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{SpotGeneration: "RANDOM_RED_ONLY"})
	require.NoError(t, err)
	_, err = svc.RunRounds(ctx, snap.ID, 4)
	require.NoError(t, err)

	store.On("Create", mock.Anything, mock.MatchedBy(func(run *model.Run) bool {
		return run.ID == snap.ID &&
			run.Rounds == 4 &&
			len(run.Strategies) == 1 &&
			run.Strategies[0].StrategyID == "fixed" &&
			run.Strategies[0].FinalBalance.Equal(dec("1004")) &&
			len(run.Strategies[0].BalanceHistory) == 4
	})).Return(nil).Once()

	run, err := svc.Close(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, run.ID)
	store.AssertExpectations(t)

	_, err = svc.Snapshot(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestClose_StoreFailureKeepsSession(t *testing.T) {
	store := new(MockRunStore)
	svc := newTestService(store)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{})
	require.NoError(t, err)

	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	_, err = svc.Close(ctx, snap.ID)
	require.Error(t, err)

	_, err = svc.Snapshot(ctx, snap.ID)
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestClose_WithoutStore(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	snap, err := svc.CreateSession(ctx, SessionRequest{})
	require.NoError(t, err)

	run, err := svc.Close(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, run.ID)

	_, err = svc.Close(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListRuns(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.ListRuns(context.Background(), 10)
	assert.ErrorIs(t, err, ErrPersistenceDisabled)

	store := new(MockRunStore)
	svc = newTestService(store)
	runs := []*model.Run{{ID: uuid.New(), Variant: string(roulette.VariantEuropean)}}
	store.On("ListRecent", mock.Anything, 10).Return(runs, nil).Once()

	got, err := svc.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, runs, got)
	store.AssertExpectations(t)
}

func TestSessionCacheEvictsOldest(t *testing.T) {
	srv := testServerConfig()
	srv.SessionCacheSize = 1
	svc := NewSimulationService(testSimConfig(), srv, strategy.NewDefaultRegistry(), nil)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, SessionRequest{})
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, SessionRequest{})
	require.NoError(t, err)

	_, err = svc.Snapshot(ctx, first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Snapshot(ctx, second.ID)
	assert.NoError(t, err)
}
