package roulette

import (
	"slices"

	"github.com/shopspring/decimal"
)

// MaxBalanceHistory is the size of a strategy's balance history window.
const MaxBalanceHistory = 1000

// Strategy is a staking policy driven round by round by the Simulator.
// Implementations are not safe for concurrent use.
type Strategy interface {
	// Name returns the display name of the policy.
	Name() string

	// NextBets returns the bets for the coming round. A broke strategy
	// returns an empty list.
	NextBets(rc *Context) []Bet

	// Update settles the bets placed this round against the drawn spot.
	Update(bets []Bet, spot Spot)

	// IsLive reports whether the balance is still positive.
	IsLive() bool

	// Stats returns a point-in-time copy of the running statistics.
	Stats() Stats
}

// Stats is a snapshot of a strategy's running statistics.
type Stats struct {
	CurrentBalance  decimal.Decimal   `json:"current_balance"`
	MaximumBalance  decimal.Decimal   `json:"maximum_balance"`
	MinimumBalance  decimal.Decimal   `json:"minimum_balance"`
	MaximumTotalBet decimal.Decimal   `json:"maximum_total_bet"`
	WonCount        int               `json:"won_count"`
	LostCount       int               `json:"lost_count"`
	BetCount        int               `json:"bet_count"`
	TotalWagered    decimal.Decimal   `json:"total_wagered"`
	TotalPayout     decimal.Decimal   `json:"total_payout"`
	BalanceHistory  []decimal.Decimal `json:"balance_history"`
}

// Clone returns a copy that shares no memory with s.
func (s Stats) Clone() Stats {
	s.BalanceHistory = slices.Clone(s.BalanceHistory)
	return s
}

// WinRate returns won rounds over betting rounds, 0 before the first bet.
func (s Stats) WinRate() float64 {
	if s.BetCount == 0 {
		return 0
	}
	return float64(s.WonCount) / float64(s.BetCount)
}

// AverageWager returns the mean total stake per betting round.
func (s Stats) AverageWager() decimal.Decimal {
	if s.BetCount == 0 {
		return decimal.Zero
	}
	return s.TotalWagered.Div(decimal.NewFromInt(int64(s.BetCount)))
}

// AveragePayout returns the mean total return per betting round.
func (s Stats) AveragePayout() decimal.Decimal {
	if s.BetCount == 0 {
		return decimal.Zero
	}
	return s.TotalPayout.Div(decimal.NewFromInt(int64(s.BetCount)))
}

// NetProfit returns the balance change relative to initial.
func (s Stats) NetProfit(initial decimal.Decimal) decimal.Decimal {
	return s.CurrentBalance.Sub(initial)
}

// BalanceSeries returns the balance history as plain numbers for charting.
func (s Stats) BalanceSeries() []float64 {
	series := make([]float64, len(s.BalanceHistory))
	for i, b := range s.BalanceHistory {
		series[i] = b.InexactFloat64()
	}
	return series
}
