// Package service runs simulation sessions on top of the roulette engine.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"roulette-simulator/internal/config"
	"roulette-simulator/internal/metrics"
	"roulette-simulator/internal/model"
	"roulette-simulator/internal/pkg/lock"
	"roulette-simulator/internal/roulette"
	"roulette-simulator/internal/roulette/strategy"
)

// Common errors for simulation operations.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionBusy         = errors.New("session is busy")
	ErrInvalidRounds       = errors.New("rounds out of range")
	ErrInvalidRequest      = errors.New("invalid session request")
	ErrPersistenceDisabled = errors.New("run persistence is disabled")
)

const (
	// MaxRoundsPerCall bounds RunRounds.
	MaxRoundsPerCall = 100000
	// MaxReturnedResults is how many trailing round results RunRounds returns per lane.
	MaxReturnedResults = 100
)

// RunStore persists finished runs.
type RunStore interface {
	Create(ctx context.Context, run *model.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Run, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Run, error)
}

// SessionRequest overrides the configured simulation record for one session.
// Zero values keep the configured defaults.
type SessionRequest struct {
	Variant        string          `json:"variant" validate:"omitempty,oneof=EUROPEAN_STYLE AMERICAN_STYLE ONE_TO_36"`
	SpotGeneration string          `json:"spot_generation" validate:"omitempty,oneof=RANDOM ROTATION_NUMBER ROTATION_WHEEL RANDOM_RED_ONLY RANDOM_BLACK_ONLY RANDOM_EXCEPT_ONE"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	MinBet         decimal.Decimal `json:"min_bet"`
	MaxBet         decimal.Decimal `json:"max_bet"`
	Strategies     []string        `json:"strategies" validate:"omitempty,dive,required"`
	Seed           uint64          `json:"seed"`
}

// StrategyInfo describes a registered strategy.
type StrategyInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LaneSnapshot is the state of one strategy lane.
type LaneSnapshot struct {
	StrategyID string          `json:"strategy_id"`
	Name       string          `json:"name"`
	Live       bool            `json:"live"`
	Round      int             `json:"round"`
	History    []roulette.Spot `json:"history"`
	Stats      roulette.Stats  `json:"stats"`
}

// SessionSnapshot is a point-in-time view of a session.
type SessionSnapshot struct {
	ID             uuid.UUID       `json:"id"`
	Variant        string          `json:"variant"`
	SpotGeneration string          `json:"spot_generation"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Seed           uint64          `json:"seed"`
	Rounds         int             `json:"rounds"`
	CreatedAt      time.Time       `json:"created_at"`
	Lanes          []LaneSnapshot  `json:"lanes"`
}

// LaneRounds is what one lane played during a RunRounds call.
type LaneRounds struct {
	StrategyID string            `json:"strategy_id"`
	Played     int               `json:"played"`
	WentBroke  bool              `json:"went_broke"`
	Results    []roulette.Result `json:"results"`
}

// RoundsResult is returned by RunRounds.
type RoundsResult struct {
	Session SessionSnapshot `json:"session"`
	Lanes   []LaneRounds    `json:"lanes"`
}

// lane pairs one strategy with its own simulator and context.
type lane struct {
	id       string
	sim      *roulette.Simulator
	strategy roulette.Strategy
}

// session is a set of lanes sharing table rules and seed.
type session struct {
	id             uuid.UUID
	variant        roulette.Variant
	generateType   roulette.GenerateType
	initialBalance decimal.Decimal
	seed           uint64
	rounds         int
	createdAt      time.Time
	lanes          []*lane
}

// SimulationService manages in-memory simulation sessions.
type SimulationService struct {
	sim         config.SimulationConfig
	registry    *strategy.Registry
	store       RunStore
	sessions    *expirable.LRU[uuid.UUID, *session]
	locks       *lock.KeyLock[uuid.UUID]
	lockTimeout time.Duration
}

// NewSimulationService creates a SimulationService. store may be nil, in
// which case closed sessions are not persisted.
func NewSimulationService(
	simCfg config.SimulationConfig,
	srvCfg config.ServerConfig,
	registry *strategy.Registry,
	store RunStore,
) *SimulationService {
	s := &SimulationService{
		sim:         simCfg,
		registry:    registry,
		store:       store,
		locks:       lock.New[uuid.UUID](),
		lockTimeout: srvCfg.LockTimeout,
	}
	s.sessions = expirable.NewLRU[uuid.UUID, *session](srvCfg.SessionCacheSize, s.onEvict, srvCfg.SessionTTL)
	return s
}

func (s *SimulationService) onEvict(id uuid.UUID, _ *session) {
	metrics.SessionsActive.Dec()
	s.locks.Forget(id)
	log.Debug().Str("session", id.String()).Msg("Session evicted")
}

// Strategies lists the registered strategies.
func (s *SimulationService) Strategies() []StrategyInfo {
	ids := s.registry.IDs()
	out := make([]StrategyInfo, 0, len(ids))
	for _, id := range ids {
		st, err := s.registry.Build(id, decimal.NewFromInt(1), nil)
		if err != nil {
			continue
		}
		out = append(out, StrategyInfo{ID: id, Name: st.Name()})
	}
	return out
}

// CreateSession starts a session with one lane per selected strategy.
func (s *SimulationService) CreateSession(ctx context.Context, req SessionRequest) (SessionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return SessionSnapshot{}, err
	}

	variant := roulette.Variant(or(req.Variant, s.sim.Variant))
	if err := variant.Validate(); err != nil {
		return SessionSnapshot{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	generateType := roulette.GenerateType(or(req.SpotGeneration, s.sim.SpotGeneration))
	if err := generateType.Validate(); err != nil {
		return SessionSnapshot{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	initial, err := amount(req.InitialBalance, s.sim.InitialBalanceDecimal(), "initial_balance")
	if err != nil {
		return SessionSnapshot{}, err
	}
	minBet, err := amount(req.MinBet, s.sim.MinBetDecimal(), "min_bet")
	if err != nil {
		return SessionSnapshot{}, err
	}
	maxBet, err := amount(req.MaxBet, s.sim.MaxBetDecimal(), "max_bet")
	if err != nil {
		return SessionSnapshot{}, err
	}
	if maxBet.LessThan(minBet) {
		return SessionSnapshot{}, fmt.Errorf("%w: max_bet below min_bet", ErrInvalidRequest)
	}

	ids := req.Strategies
	if len(ids) == 0 {
		ids = s.sim.Strategies
	}
	if len(ids) == 0 {
		return SessionSnapshot{}, fmt.Errorf("%w: no strategies selected", ErrInvalidRequest)
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.sim.Seed
	}
	for seed == 0 {
		seed = rand.Uint64()
	}

	sess := &session{
		id:             uuid.New(),
		variant:        variant,
		generateType:   generateType,
		initialBalance: initial,
		seed:           seed,
		createdAt:      time.Now(),
	}

	stakes := &strategy.Config{BaseAmount: minBet, MaxBetAmount: maxBet}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		st, err := s.registry.Build(id, initial, stakes)
		if err != nil {
			return SessionSnapshot{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		// Every lane draws from the same seed so lanes see the same spots
		// while they are all live.
		sim := roulette.NewSimulator(&roulette.Config{
			Variant:        variant,
			GenerateType:   generateType,
			InitialBalance: initial,
			Random:         roulette.NewRandomSource(seed),
		})
		sess.lanes = append(sess.lanes, &lane{id: id, sim: sim, strategy: st})
	}

	s.sessions.Add(sess.id, sess)
	metrics.SessionsActive.Inc()

	log.Info().
		Str("session", sess.id.String()).
		Str("variant", string(variant)).
		Str("spot_generation", string(generateType)).
		Str("initial_balance", initial.String()).
		Int("lanes", len(sess.lanes)).
		Msg("Session created")

	return sess.snapshot(), nil
}

// RunRounds plays n rounds on every lane of a session. Broke lanes stop early.
func (s *SimulationService) RunRounds(ctx context.Context, id uuid.UUID, n int) (RoundsResult, error) {
	if n < 1 || n > MaxRoundsPerCall {
		return RoundsResult{}, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidRounds, n, MaxRoundsPerCall)
	}

	var out RoundsResult
	err := s.withSession(ctx, id, func(sess *session) error {
		out.Lanes = make([]LaneRounds, 0, len(sess.lanes))
		maxPlayed := 0
		for _, l := range sess.lanes {
			wasLive := l.strategy.IsLive()
			results, err := l.sim.SimulateRounds(l.strategy, n)
			if err != nil {
				return fmt.Errorf("failed to simulate %s: %w", l.id, err)
			}

			wagered := decimal.Zero
			for _, r := range results {
				wagered = wagered.Add(r.TotalBet)
			}
			metrics.RoundsTotal.WithLabelValues(l.id).Add(float64(len(results)))
			metrics.WageredTotal.WithLabelValues(l.id).Add(wagered.InexactFloat64())

			broke := wasLive && !l.strategy.IsLive()
			if broke {
				metrics.StrategyBrokeTotal.WithLabelValues(l.id).Inc()
				log.Info().
					Str("session", sess.id.String()).
					Str("strategy", l.id).
					Int("round", l.sim.Context().Round()).
					Msg("Strategy lane is broke")
			}

			played := len(results)
			maxPlayed = max(maxPlayed, played)
			if played > MaxReturnedResults {
				results = results[played-MaxReturnedResults:]
			}
			out.Lanes = append(out.Lanes, LaneRounds{
				StrategyID: l.id,
				Played:     played,
				WentBroke:  broke,
				Results:    results,
			})
		}
		sess.rounds += maxPlayed
		// Refresh the TTL of an active session.
		s.sessions.Add(sess.id, sess)
		out.Session = sess.snapshot()
		return nil
	})
	return out, err
}

// Snapshot returns the current state of a session.
func (s *SimulationService) Snapshot(ctx context.Context, id uuid.UUID) (SessionSnapshot, error) {
	var out SessionSnapshot
	err := s.withSession(ctx, id, func(sess *session) error {
		out = sess.snapshot()
		return nil
	})
	return out, err
}

// Reset clears round counters and spot histories. Strategy balances and
// statistics are kept.
func (s *SimulationService) Reset(ctx context.Context, id uuid.UUID) (SessionSnapshot, error) {
	var out SessionSnapshot
	err := s.withSession(ctx, id, func(sess *session) error {
		for _, l := range sess.lanes {
			l.sim.Reset()
		}
		out = sess.snapshot()
		log.Info().Str("session", sess.id.String()).Msg("Session reset")
		return nil
	})
	return out, err
}

// Close persists the session when a store is configured and removes it.
// On a persistence error the session is kept.
func (s *SimulationService) Close(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	var run *model.Run
	err := s.withSession(ctx, id, func(sess *session) error {
		run = sess.toRun()
		if s.store != nil {
			if err := s.store.Create(ctx, run); err != nil {
				return fmt.Errorf("failed to persist run: %w", err)
			}
		}
		s.sessions.Remove(sess.id)
		log.Info().
			Str("session", sess.id.String()).
			Int("rounds", sess.rounds).
			Bool("persisted", s.store != nil).
			Msg("Session closed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.locks.Forget(id)
	return run, nil
}

// ListRuns returns recently persisted runs.
func (s *SimulationService) ListRuns(ctx context.Context, limit int) ([]*model.Run, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.store.ListRecent(ctx, limit)
}

// GetRun returns one persisted run.
func (s *SimulationService) GetRun(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.store.GetByID(ctx, id)
}

// DefaultRounds is the configured round count used when a caller gives none.
func (s *SimulationService) DefaultRounds() int {
	return s.sim.Rounds
}

// ActiveSessions returns the number of sessions held in memory.
func (s *SimulationService) ActiveSessions() int {
	return s.sessions.Len()
}

// withSession runs fn while holding the session's lock.
func (s *SimulationService) withSession(ctx context.Context, id uuid.UUID, fn func(*session) error) error {
	if !s.sessions.Contains(id) {
		return ErrSessionNotFound
	}
	err := s.locks.WithLockContext(ctx, id, s.lockTimeout, func() error {
		// It may have been closed while we waited.
		sess, ok := s.sessions.Peek(id)
		if !ok {
			return ErrSessionNotFound
		}
		return fn(sess)
	})
	if errors.Is(err, lock.ErrLockTimeout) {
		return ErrSessionBusy
	}
	return err
}

func (sess *session) snapshot() SessionSnapshot {
	out := SessionSnapshot{
		ID:             sess.id,
		Variant:        string(sess.variant),
		SpotGeneration: string(sess.generateType),
		InitialBalance: sess.initialBalance,
		Seed:           sess.seed,
		Rounds:         sess.rounds,
		CreatedAt:      sess.createdAt,
		Lanes:          make([]LaneSnapshot, 0, len(sess.lanes)),
	}
	for _, l := range sess.lanes {
		rc := l.sim.Context()
		out.Lanes = append(out.Lanes, LaneSnapshot{
			StrategyID: l.id,
			Name:       l.strategy.Name(),
			Live:       l.strategy.IsLive(),
			Round:      rc.Round(),
			History:    rc.History(),
			Stats:      l.strategy.Stats(),
		})
	}
	return out
}

func (sess *session) toRun() *model.Run {
	run := &model.Run{
		ID:             sess.id,
		Variant:        string(sess.variant),
		SpotGeneration: string(sess.generateType),
		InitialBalance: sess.initialBalance,
		Rounds:         sess.rounds,
		Strategies:     make([]model.RunStrategy, 0, len(sess.lanes)),
	}
	for _, l := range sess.lanes {
		st := l.strategy.Stats()
		run.Strategies = append(run.Strategies, model.RunStrategy{
			RunID:           sess.id,
			StrategyID:      l.id,
			Name:            l.strategy.Name(),
			FinalBalance:    st.CurrentBalance,
			MaximumBalance:  st.MaximumBalance,
			MinimumBalance:  st.MinimumBalance,
			MaximumTotalBet: st.MaximumTotalBet,
			WonCount:        st.WonCount,
			LostCount:       st.LostCount,
			BetCount:        st.BetCount,
			TotalWagered:    st.TotalWagered,
			TotalPayout:     st.TotalPayout,
			Live:            l.strategy.IsLive(),
			BalanceHistory:  st.BalanceHistory,
		})
	}
	return run
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// amount returns v, or fallback when v is zero. Negative values are rejected.
func amount(v, fallback decimal.Decimal, field string) (decimal.Decimal, error) {
	switch {
	case v.IsZero():
		return fallback, nil
	case v.IsNegative():
		return decimal.Zero, fmt.Errorf("%w: %s must be positive", ErrInvalidRequest, field)
	default:
		return v, nil
	}
}
