package roulette

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultInitialBalance is used when Config.InitialBalance is not positive.
const DefaultInitialBalance = 1000

// Result is the outcome of one simulated round.
type Result struct {
	Spot        Spot            `json:"spot"`
	Bets        []Bet           `json:"bets"`
	TotalBet    decimal.Decimal `json:"total_bet"`
	TotalPayout decimal.Decimal `json:"total_payout"`
	Balance     decimal.Decimal `json:"balance"`
	Won         bool            `json:"won"`
}

// Config holds the table rules of a simulator.
type Config struct {
	Variant        Variant
	GenerateType   GenerateType
	InitialBalance decimal.Decimal
	// Random drives the RANDOM* generate types. Nil uses a time seeded source.
	Random RandomSource
}

// Simulator plays rounds of one session against a strategy.
type Simulator struct {
	ctx    *Context
	random RandomSource
}

// NewSimulator creates a Simulator. Empty fields fall back to a European
// wheel, random spot generation and a balance of 1000.
func NewSimulator(cfg *Config) *Simulator {
	variant := VariantEuropean
	generateType := GenerateRandom
	initial := decimal.NewFromInt(DefaultInitialBalance)
	var random RandomSource

	if cfg != nil {
		if cfg.Variant != "" {
			variant = cfg.Variant
		}
		if cfg.GenerateType != "" {
			generateType = cfg.GenerateType
		}
		if cfg.InitialBalance.IsPositive() {
			initial = cfg.InitialBalance
		}
		random = cfg.Random
	}
	if random == nil {
		random = NewRandomSource(0)
	}

	return &Simulator{
		ctx:    NewContext(variant, generateType, initial),
		random: random,
	}
}

// SimulateRound plays a single round: bets, spot, settlement, history.
func (s *Simulator) SimulateRound(strategy Strategy) (Result, error) {
	if err := s.ctx.Validate(); err != nil {
		return Result{}, err
	}

	bets := strategy.NextBets(s.ctx)

	spot, err := NextSpot(s.ctx, s.random)
	if err != nil {
		return Result{}, err
	}

	totalBet := TotalStake(bets)
	totalPayout := TotalPayout(bets, spot)
	won := AnyWin(bets, spot)

	wasLive := strategy.IsLive()
	strategy.Update(bets, spot)
	s.ctx.record(spot)

	balance := strategy.Stats().CurrentBalance
	if wasLive && !strategy.IsLive() {
		log.Debug().
			Str("strategy", strategy.Name()).
			Int("round", s.ctx.round).
			Str("balance", balance.String()).
			Msg("Strategy went broke")
	}

	return Result{
		Spot:        spot,
		Bets:        bets,
		TotalBet:    totalBet,
		TotalPayout: totalPayout,
		Balance:     balance,
		Won:         won,
	}, nil
}

// SimulateRounds plays up to n rounds, stopping before a round would start
// with a broke strategy. The round that broke it is included.
func (s *Simulator) SimulateRounds(strategy Strategy, n int) ([]Result, error) {
	results := make([]Result, 0, max(n, 0))
	for i := 0; i < n && strategy.IsLive(); i++ {
		r, err := s.SimulateRound(strategy)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Reset clears the round counter and spot history. Strategy state is
// independent and untouched.
func (s *Simulator) Reset() {
	s.ctx.reset()
}

// Context returns a copy of the session context.
func (s *Simulator) Context() *Context {
	return s.ctx.Clone()
}
