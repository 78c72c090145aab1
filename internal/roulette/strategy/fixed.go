package strategy

import (
	"github.com/shopspring/decimal"

	"roulette-simulator/internal/roulette"
)

// Fixed bets the same amount on red every round.
type Fixed struct {
	book   *Ledger
	amount decimal.Decimal
	maxBet decimal.Decimal
}

// NewFixed creates a fixed stake strategy.
func NewFixed(initialBalance decimal.Decimal, cfg *Config) *Fixed {
	return &Fixed{
		book:   NewLedger(initialBalance),
		amount: cfg.base(),
		maxBet: cfg.maxBet(),
	}
}

// Name returns the display name.
func (f *Fixed) Name() string { return "Fixed Bet Strategy" }

// NextBets places the fixed stake on red, clamped to the max bet, when the
// balance covers it.
func (f *Fixed) NextBets(_ *roulette.Context) []roulette.Bet {
	return nextBets(f.book, func() []roulette.Bet {
		amount := clamp(f.amount, f.maxBet)
		if !f.book.CanAfford(amount) {
			return []roulette.Bet{}
		}
		return []roulette.Bet{roulette.NewRedBet(amount)}
	})
}

// Update settles the round; the stake never changes.
func (f *Fixed) Update(bets []roulette.Bet, spot roulette.Spot) {
	f.book.Settle(bets, spot)
}

// IsLive reports a positive balance.
func (f *Fixed) IsLive() bool { return f.book.IsLive() }

// Stats returns a snapshot of the running statistics.
func (f *Fixed) Stats() roulette.Stats { return f.book.Stats() }
