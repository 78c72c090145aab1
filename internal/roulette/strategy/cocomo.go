package strategy

import (
	"github.com/shopspring/decimal"

	"roulette-simulator/internal/roulette"
)

var lossScale = decimal.NewFromFloat(1.5)

// Cocomo bets on the color opposite to the previous spot (red after black,
// green or no history). A loss scales the stake by 1.5 truncated toward
// zero; a win resets it to the base stake.
type Cocomo struct {
	book    *Ledger
	base    decimal.Decimal
	current decimal.Decimal
	maxBet  decimal.Decimal
}

// NewCocomo creates a progressive color-alternating strategy.
func NewCocomo(initialBalance decimal.Decimal, cfg *Config) *Cocomo {
	base := cfg.base()
	return &Cocomo{
		book:    NewLedger(initialBalance),
		base:    base,
		current: base,
		maxBet:  cfg.maxBet(),
	}
}

// Name returns the display name.
func (c *Cocomo) Name() string { return "Cocomo Strategy" }

// NextBets places the current stake on the color opposite to the last
// spot, clamped to the max bet, when the balance covers it.
func (c *Cocomo) NextBets(rc *roulette.Context) []roulette.Bet {
	return nextBets(c.book, func() []roulette.Bet {
		amount := clamp(c.current, c.maxBet)
		if !c.book.CanAfford(amount) {
			return []roulette.Bet{}
		}
		if last, ok := rc.LastSpot(); ok && last.IsRed() {
			return []roulette.Bet{roulette.NewBlackBet(amount)}
		}
		return []roulette.Bet{roulette.NewRedBet(amount)}
	})
}

// Update settles the round, scaling the stake by 1.5 after a loss and
// resetting it to base after a win.
func (c *Cocomo) Update(bets []roulette.Bet, spot roulette.Spot) {
	won := c.book.Settle(bets, spot)
	if len(bets) == 0 {
		return
	}
	if won {
		c.current = c.base
	} else {
		c.current = c.current.Mul(lossScale).Truncate(0)
	}
}

// CurrentAmount returns the stake the next round will try to place.
func (c *Cocomo) CurrentAmount() decimal.Decimal { return c.current }

// IsLive reports a positive balance.
func (c *Cocomo) IsLive() bool { return c.book.IsLive() }

// Stats returns a snapshot of the running statistics.
func (c *Cocomo) Stats() roulette.Stats { return c.book.Stats() }
