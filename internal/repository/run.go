// Package repository persists finished simulation runs in PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"roulette-simulator/internal/model"
)

// Common errors for repository operations.
var (
	ErrRunNotFound = errors.New("run not found")
)

// DefaultListLimit is used by ListRecent when limit is not positive.
const DefaultListLimit = 20

const schema = `
CREATE TABLE IF NOT EXISTS simulation_runs (
	id UUID PRIMARY KEY,
	variant VARCHAR(32) NOT NULL,
	spot_generation VARCHAR(32) NOT NULL,
	initial_balance NUMERIC NOT NULL,
	rounds INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS simulation_run_strategies (
	run_id UUID NOT NULL REFERENCES simulation_runs(id) ON DELETE CASCADE,
	strategy_id VARCHAR(32) NOT NULL,
	name VARCHAR(64) NOT NULL,
	final_balance NUMERIC NOT NULL,
	maximum_balance NUMERIC NOT NULL,
	minimum_balance NUMERIC NOT NULL,
	maximum_total_bet NUMERIC NOT NULL,
	won_count INTEGER NOT NULL DEFAULT 0,
	lost_count INTEGER NOT NULL DEFAULT 0,
	bet_count INTEGER NOT NULL DEFAULT 0,
	total_wagered NUMERIC NOT NULL,
	total_payout NUMERIC NOT NULL,
	live BOOLEAN NOT NULL,
	balance_history JSONB NOT NULL DEFAULT '[]',
	PRIMARY KEY (run_id, strategy_id)
);

CREATE INDEX IF NOT EXISTS idx_simulation_runs_created_at ON simulation_runs(created_at DESC);
`

// RunRepository handles simulation run persistence.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new RunRepository instance.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Migrate creates the run tables if they do not exist.
func (r *RunRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate run tables: %w", err)
	}
	log.Info().Msg("Run tables migrated")
	return nil
}

// Create stores a run and its strategy rows in one transaction.
// A zero run ID is replaced with a fresh UUID. CreatedAt is set by the database.
func (r *RunRepository) Create(ctx context.Context, run *model.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertRun = `
		INSERT INTO simulation_runs (id, variant, spot_generation, initial_balance, rounds, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, insertRun,
		run.ID, run.Variant, run.SpotGeneration, run.InitialBalance, run.Rounds,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	const insertStrategy = `
		INSERT INTO simulation_run_strategies (
			run_id, strategy_id, name, final_balance, maximum_balance, minimum_balance,
			maximum_total_bet, won_count, lost_count, bet_count, total_wagered, total_payout,
			live, balance_history
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	batch := &pgx.Batch{}
	for i := range run.Strategies {
		s := &run.Strategies[i]
		s.RunID = run.ID
		history, err := json.Marshal(s.BalanceHistory)
		if err != nil {
			return fmt.Errorf("failed to encode balance history: %w", err)
		}
		batch.Queue(insertStrategy,
			s.RunID, s.StrategyID, s.Name, s.FinalBalance, s.MaximumBalance, s.MinimumBalance,
			s.MaximumTotalBet, s.WonCount, s.LostCount, s.BetCount, s.TotalWagered, s.TotalPayout,
			s.Live, history,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to create run strategies: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetByID retrieves a run with its strategy rows.
// Returns ErrRunNotFound if the run does not exist.
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	const query = `
		SELECT id, variant, spot_generation, initial_balance, rounds, created_at
		FROM simulation_runs
		WHERE id = $1
	`

	var run model.Run
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.Variant,
		&run.SpotGeneration,
		&run.InitialBalance,
		&run.Rounds,
		&run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	strategies, err := r.strategies(ctx, []uuid.UUID{run.ID})
	if err != nil {
		return nil, err
	}
	run.Strategies = strategies[run.ID]
	return &run, nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	const query = `
		SELECT id, variant, spot_generation, initial_balance, rounds, created_at
		FROM simulation_runs
		ORDER BY created_at DESC, id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	var ids []uuid.UUID
	for rows.Next() {
		var run model.Run
		if err := rows.Scan(
			&run.ID,
			&run.Variant,
			&run.SpotGeneration,
			&run.InitialBalance,
			&run.Rounds,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &run)
		ids = append(ids, run.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	if len(runs) == 0 {
		return runs, nil
	}

	strategies, err := r.strategies(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		run.Strategies = strategies[run.ID]
	}
	return runs, nil
}

func (r *RunRepository) strategies(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.RunStrategy, error) {
	const query = `
		SELECT run_id, strategy_id, name, final_balance, maximum_balance, minimum_balance,
			maximum_total_bet, won_count, lost_count, bet_count, total_wagered, total_payout,
			live, balance_history
		FROM simulation_run_strategies
		WHERE run_id = ANY($1)
		ORDER BY run_id, strategy_id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get run strategies: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.RunStrategy, len(ids))
	for rows.Next() {
		var s model.RunStrategy
		var history []byte
		if err := rows.Scan(
			&s.RunID,
			&s.StrategyID,
			&s.Name,
			&s.FinalBalance,
			&s.MaximumBalance,
			&s.MinimumBalance,
			&s.MaximumTotalBet,
			&s.WonCount,
			&s.LostCount,
			&s.BetCount,
			&s.TotalWagered,
			&s.TotalPayout,
			&s.Live,
			&history,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run strategy: %w", err)
		}
		if err := json.Unmarshal(history, &s.BalanceHistory); err != nil {
			return nil, fmt.Errorf("failed to decode balance history: %w", err)
		}
		out[s.RunID] = append(out[s.RunID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run strategies: %w", err)
	}
	return out, nil
}
