package strategy

import (
	"github.com/shopspring/decimal"

	"roulette-simulator/internal/roulette"
)

var two = decimal.NewFromInt(2)

// Martingale bets on red, doubling the stake after a loss and returning to
// the base stake after a win.
type Martingale struct {
	book    *Ledger
	base    decimal.Decimal
	current decimal.Decimal
	maxBet  decimal.Decimal
}

// NewMartingale creates a doubling strategy.
func NewMartingale(initialBalance decimal.Decimal, cfg *Config) *Martingale {
	base := cfg.base()
	return &Martingale{
		book:    NewLedger(initialBalance),
		base:    base,
		current: base,
		maxBet:  cfg.maxBet(),
	}
}

// Name returns the display name.
func (m *Martingale) Name() string { return "Martingale Strategy" }

// NextBets places the current stake on red, clamped to the max bet, when
// the balance covers it.
func (m *Martingale) NextBets(_ *roulette.Context) []roulette.Bet {
	return nextBets(m.book, func() []roulette.Bet {
		amount := clamp(m.current, m.maxBet)
		if !m.book.CanAfford(amount) {
			return []roulette.Bet{}
		}
		return []roulette.Bet{roulette.NewRedBet(amount)}
	})
}

// Update settles the round, doubling the stake after a loss and resetting
// it to base after a win.
func (m *Martingale) Update(bets []roulette.Bet, spot roulette.Spot) {
	won := m.book.Settle(bets, spot)
	if len(bets) == 0 {
		return
	}
	if won {
		m.current = m.base
	} else {
		m.current = m.current.Mul(two)
	}
}

// CurrentAmount returns the stake the next round will try to place.
func (m *Martingale) CurrentAmount() decimal.Decimal { return m.current }

// IsLive reports a positive balance.
func (m *Martingale) IsLive() bool { return m.book.IsLive() }

// Stats returns a snapshot of the running statistics.
func (m *Martingale) Stats() roulette.Stats { return m.book.Stats() }
