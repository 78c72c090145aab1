// Package model defines the persisted records of finished simulation runs.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Run is a finished simulation session.
type Run struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Variant        string          `db:"variant" json:"variant"`
	SpotGeneration string          `db:"spot_generation" json:"spot_generation"`
	InitialBalance decimal.Decimal `db:"initial_balance" json:"initial_balance"`
	Rounds         int             `db:"rounds" json:"rounds"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	Strategies     []RunStrategy   `json:"strategies"`
}

// RunStrategy holds the final statistics of one strategy lane in a run.
type RunStrategy struct {
	RunID           uuid.UUID         `db:"run_id" json:"-"`
	StrategyID      string            `db:"strategy_id" json:"strategy_id"`
	Name            string            `db:"name" json:"name"`
	FinalBalance    decimal.Decimal   `db:"final_balance" json:"final_balance"`
	MaximumBalance  decimal.Decimal   `db:"maximum_balance" json:"maximum_balance"`
	MinimumBalance  decimal.Decimal   `db:"minimum_balance" json:"minimum_balance"`
	MaximumTotalBet decimal.Decimal   `db:"maximum_total_bet" json:"maximum_total_bet"`
	WonCount        int               `db:"won_count" json:"won_count"`
	LostCount       int               `db:"lost_count" json:"lost_count"`
	BetCount        int               `db:"bet_count" json:"bet_count"`
	TotalWagered    decimal.Decimal   `db:"total_wagered" json:"total_wagered"`
	TotalPayout     decimal.Decimal   `db:"total_payout" json:"total_payout"`
	Live            bool              `db:"live" json:"live"`
	BalanceHistory  []decimal.Decimal `db:"balance_history" json:"balance_history"`
}
