// Package strategy implements the staking policies played by the simulator.
// Every policy keeps its bookkeeping in a Ledger and adds only its own
// stake selection on top.
package strategy

import (
	"github.com/shopspring/decimal"

	"roulette-simulator/internal/roulette"
)

// Config holds the stake settings shared by all policies.
type Config struct {
	// BaseAmount is the opening stake. Defaults to 1.
	BaseAmount decimal.Decimal
	// MaxBetAmount clamps the stake of a round. Zero disables the clamp.
	MaxBetAmount decimal.Decimal
}

func (c *Config) base() decimal.Decimal {
	if c != nil && c.BaseAmount.IsPositive() {
		return c.BaseAmount
	}
	return decimal.NewFromInt(1)
}

func (c *Config) maxBet() decimal.Decimal {
	if c != nil && c.MaxBetAmount.IsPositive() {
		return c.MaxBetAmount
	}
	return decimal.Zero
}

// Ledger tracks balance and running statistics for a strategy.
type Ledger struct {
	balance     decimal.Decimal
	maxBalance  decimal.Decimal
	minBalance  decimal.Decimal
	maxTotalBet decimal.Decimal
	wonCount    int
	lostCount   int
	betCount    int
	wagered     decimal.Decimal
	paidOut     decimal.Decimal
	history     []decimal.Decimal
}

// NewLedger creates a ledger. Watermarks start at the initial balance.
func NewLedger(initialBalance decimal.Decimal) *Ledger {
	return &Ledger{
		balance:    initialBalance,
		maxBalance: initialBalance,
		minBalance: initialBalance,
		history:    make([]decimal.Decimal, 0, 64),
	}
}

// IsLive reports a positive balance.
func (l *Ledger) IsLive() bool {
	return l.balance.IsPositive()
}

// Balance returns the current balance.
func (l *Ledger) Balance() decimal.Decimal {
	return l.balance
}

// CanAfford reports whether amount is a positive stake the balance covers.
func (l *Ledger) CanAfford(amount decimal.Decimal) bool {
	return amount.IsPositive() && l.balance.GreaterThanOrEqual(amount)
}

// Placed records the total stake of a round's bets for the max-bet watermark.
func (l *Ledger) Placed(bets []roulette.Bet) {
	if total := roulette.TotalStake(bets); total.GreaterThan(l.maxTotalBet) {
		l.maxTotalBet = total
	}
}

// Settle applies a round's bets against the drawn spot and reports whether
// any of them won. Balance history stops growing once the strategy is broke;
// the round that broke it is still recorded.
func (l *Ledger) Settle(bets []roulette.Bet, spot roulette.Spot) bool {
	wasLive := l.IsLive()
	won := false

	if len(bets) > 0 {
		stake := roulette.TotalStake(bets)
		payout := roulette.TotalPayout(bets, spot)

		l.wagered = l.wagered.Add(stake)
		l.paidOut = l.paidOut.Add(payout)
		l.balance = l.balance.Sub(stake).Add(payout)

		l.betCount++
		won = roulette.AnyWin(bets, spot)
		if won {
			l.wonCount++
		} else {
			l.lostCount++
		}
	}

	if l.balance.GreaterThan(l.maxBalance) {
		l.maxBalance = l.balance
	}
	if l.balance.LessThan(l.minBalance) {
		l.minBalance = l.balance
	}

	if wasLive {
		l.history = append(l.history, l.balance)
		if len(l.history) > roulette.MaxBalanceHistory {
			l.history = l.history[len(l.history)-roulette.MaxBalanceHistory:]
		}
	}

	return won
}

// Stats returns a snapshot sharing no memory with the ledger.
func (l *Ledger) Stats() roulette.Stats {
	history := make([]decimal.Decimal, len(l.history))
	copy(history, l.history)

	return roulette.Stats{
		CurrentBalance:  l.balance,
		MaximumBalance:  l.maxBalance,
		MinimumBalance:  l.minBalance,
		MaximumTotalBet: l.maxTotalBet,
		WonCount:        l.wonCount,
		LostCount:       l.lostCount,
		BetCount:        l.betCount,
		TotalWagered:    l.wagered,
		TotalPayout:     l.paidOut,
		BalanceHistory:  history,
	}
}

// nextBets runs decide only while the ledger is live and records the stake.
func nextBets(l *Ledger, decide func() []roulette.Bet) []roulette.Bet {
	if !l.IsLive() {
		return []roulette.Bet{}
	}
	bets := decide()
	l.Placed(bets)
	return bets
}

// clamp caps amount at limit; a zero limit means no cap.
func clamp(amount, limit decimal.Decimal) decimal.Decimal {
	if limit.IsPositive() && amount.GreaterThan(limit) {
		return limit
	}
	return amount
}
