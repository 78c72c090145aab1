package strategy

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"roulette-simulator/internal/roulette"
)

const (
	redSpot   roulette.Spot = 1
	blackSpot roulette.Spot = 2
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func table() *roulette.Context {
	return roulette.NewContext(roulette.VariantEuropean, roulette.GenerateRandom, dec(100))
}

// play places the strategy's bets and settles them against spot.
func play(t *testing.T, s roulette.Strategy, spot roulette.Spot) []roulette.Bet {
	t.Helper()
	bets := s.NextBets(table())
	s.Update(bets, spot)
	return bets
}

func assertDec(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !got.Equal(dec(want)) {
		assert.Fail(t, fmt.Sprintf("want %d, got %s", want, got), msgAndArgs...)
	}
}

// TestMartingaleLossLossWin walks the classic doubling sequence.
func TestMartingaleLossLossWin(t *testing.T) {
	m := NewMartingale(dec(100), &Config{BaseAmount: dec(1)})

	bets := play(t, m, blackSpot)
	require.Len(t, bets, 1)
	assert.Equal(t, roulette.BetTypeRed, bets[0].Type)
	assertDec(t, 1, bets[0].Amount)
	assertDec(t, 99, m.Stats().CurrentBalance)

	bets = play(t, m, blackSpot)
	assertDec(t, 2, bets[0].Amount)
	assertDec(t, 97, m.Stats().CurrentBalance)

	bets = play(t, m, redSpot)
	assertDec(t, 4, bets[0].Amount)
	assertDec(t, 101, m.Stats().CurrentBalance)
	assertDec(t, 1, m.CurrentAmount(), "stake resets after a win")

	st := m.Stats()
	assert.Equal(t, 3, st.BetCount)
	assert.Equal(t, 1, st.WonCount)
	assert.Equal(t, 2, st.LostCount)
	assertDec(t, 7, st.TotalWagered)
	assertDec(t, 8, st.TotalPayout)
	assertDec(t, 4, st.MaximumTotalBet)
	assertDec(t, 101, st.MaximumBalance)
	assertDec(t, 97, st.MinimumBalance)
	require.Len(t, st.BalanceHistory, 3)
	assertDec(t, 99, st.BalanceHistory[0])
	assertDec(t, 101, st.BalanceHistory[2])
}

func TestMartingaleClampsToMaxBet(t *testing.T) {
	m := NewMartingale(dec(1000), &Config{BaseAmount: dec(10), MaxBetAmount: dec(25)})

	play(t, m, blackSpot) // 10
	play(t, m, blackSpot) // 20
	bets := play(t, m, blackSpot)
	assertDec(t, 25, bets[0].Amount, "40 is clamped to 25")
	assertDec(t, 80, m.CurrentAmount(), "the progression itself keeps doubling")
}

func TestMartingaleSkipsUnaffordableStake(t *testing.T) {
	m := NewMartingale(dec(5), &Config{BaseAmount: dec(2)})

	play(t, m, blackSpot) // 3 left, next stake 4
	bets := play(t, m, redSpot)
	assert.Empty(t, bets)
	assert.True(t, m.IsLive())
	assertDec(t, 3, m.Stats().CurrentBalance)
	assertDec(t, 4, m.CurrentAmount(), "empty rounds do not touch the stake")
	assert.Equal(t, 1, m.Stats().BetCount)
}

func TestFixedBetsRed(t *testing.T) {
	f := NewFixed(dec(50), &Config{BaseAmount: dec(5)})

	for i := 0; i < 3; i++ {
		bets := play(t, f, blackSpot)
		require.Len(t, bets, 1)
		assert.Equal(t, roulette.BetTypeRed, bets[0].Type)
		assertDec(t, 5, bets[0].Amount)
	}
	assertDec(t, 35, f.Stats().CurrentBalance)

	play(t, f, redSpot)
	assertDec(t, 40, f.Stats().CurrentBalance)
	assert.Equal(t, "Fixed Bet Strategy", f.Name())
}

func TestFixedClampsToMaxBet(t *testing.T) {
	f := NewFixed(dec(50), &Config{BaseAmount: dec(20), MaxBetAmount: dec(5)})
	bets := play(t, f, blackSpot)
	assertDec(t, 5, bets[0].Amount)
}

func TestFixedDefaultsToUnitStake(t *testing.T) {
	f := NewFixed(dec(10), nil)
	bets := play(t, f, blackSpot)
	assertDec(t, 1, bets[0].Amount)
}

// TestFixedBrokeAfterFirstLoss drives a one-unit bankroll through the simulator.
func TestFixedBrokeAfterFirstLoss(t *testing.T) {
	sim := roulette.NewSimulator(&roulette.Config{
		Variant:      roulette.VariantEuropean,
		GenerateType: roulette.GenerateRandomBlackOnly,
	})
	f := NewFixed(dec(1), &Config{BaseAmount: dec(1)})

	results, err := sim.SimulateRounds(f, 50)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Won)
	assert.True(t, results[0].Balance.IsZero())
	assert.False(t, f.IsLive())

	st := f.Stats()
	require.Len(t, st.BalanceHistory, 1, "the breaking round is still recorded")
	assert.True(t, st.BalanceHistory[0].IsZero())
}

func TestNonPositiveInitialBalanceStartsBroke(t *testing.T) {
	for _, initial := range []int64{0, -10} {
		for _, s := range []roulette.Strategy{
			NewFixed(dec(initial), nil),
			NewMartingale(dec(initial), nil),
			NewCocomo(dec(initial), nil),
		} {
			assert.False(t, s.IsLive(), s.Name())
			assert.Empty(t, s.NextBets(table()), s.Name())
			s.Update(nil, redSpot)
			assert.Empty(t, s.Stats().BalanceHistory, s.Name())
			assertDec(t, initial, s.Stats().CurrentBalance, s.Name())
		}
	}
}

func TestCocomoBetsOppositeColor(t *testing.T) {
	c := NewCocomo(dec(100), &Config{BaseAmount: dec(2)})

	rc := roulette.NewContext(roulette.VariantEuropean, roulette.GenerateRotationNumber, dec(100))
	bets := c.NextBets(rc)
	require.Len(t, bets, 1)
	assert.Equal(t, roulette.BetTypeRed, bets[0].Type, "no history bets red")

	sim := roulette.NewSimulator(&roulette.Config{GenerateType: roulette.GenerateRotationNumber})
	// European rotation: 0, 1 (red), 2 (black), 3 (red).
	want := []roulette.BetType{
		roulette.BetTypeRed,   // no history
		roulette.BetTypeRed,   // after 0 (green)
		roulette.BetTypeBlack, // after 1 (red)
		roulette.BetTypeRed,   // after 2 (black)
	}
	for i, w := range want {
		res, err := sim.SimulateRound(c)
		require.NoError(t, err)
		require.Len(t, res.Bets, 1, "round %d", i)
		assert.Equal(t, w, res.Bets[0].Type, "round %d", i)
	}
}

func TestCocomoScalesOnLoss(t *testing.T) {
	c := NewCocomo(dec(1000), &Config{BaseAmount: dec(10)})

	play(t, c, blackSpot)
	assertDec(t, 15, c.CurrentAmount())
	play(t, c, blackSpot)
	assertDec(t, 22, c.CurrentAmount(), "22.5 truncates to 22")
	play(t, c, blackSpot)
	assertDec(t, 33, c.CurrentAmount())

	play(t, c, redSpot)
	assertDec(t, 10, c.CurrentAmount(), "a win resets to base")
}

func TestCocomoUnitBaseStaysFlat(t *testing.T) {
	c := NewCocomo(dec(100), nil)
	play(t, c, blackSpot)
	play(t, c, blackSpot)
	assertDec(t, 1, c.CurrentAmount(), "1.5 truncates back to 1")
}

func TestCocomoFractionalBaseTruncatesToZero(t *testing.T) {
	c := NewCocomo(dec(100), &Config{BaseAmount: decimal.RequireFromString("0.5")})
	play(t, c, blackSpot)
	assertDec(t, 0, c.CurrentAmount(), "0.75 truncates to 0")

	bets := play(t, c, blackSpot)
	assert.Empty(t, bets)
	assert.True(t, c.IsLive())
	assert.True(t, c.Stats().CurrentBalance.Equal(decimal.RequireFromString("99.5")))
}

func TestCocomoClampsToMaxBet(t *testing.T) {
	c := NewCocomo(dec(1000), &Config{BaseAmount: dec(10), MaxBetAmount: dec(12)})
	play(t, c, blackSpot)
	bets := play(t, c, blackSpot)
	assertDec(t, 12, bets[0].Amount)
}

func TestStatsSnapshotIsolation(t *testing.T) {
	f := NewFixed(dec(10), nil)
	play(t, f, blackSpot)

	st := f.Stats()
	st.BalanceHistory[0] = dec(999)
	st.BalanceHistory = append(st.BalanceHistory, dec(1))

	fresh := f.Stats()
	require.Len(t, fresh.BalanceHistory, 1)
	assertDec(t, 9, fresh.BalanceHistory[0])
}

func TestBalanceHistoryBounded(t *testing.T) {
	f := NewFixed(dec(1_000_000), nil)
	for i := 0; i < roulette.MaxBalanceHistory+200; i++ {
		play(t, f, 0)
	}

	st := f.Stats()
	require.Len(t, st.BalanceHistory, roulette.MaxBalanceHistory)
	assertDec(t, 1_000_000-201, st.BalanceHistory[0])
	assertDec(t, 1_000_000-1200, st.BalanceHistory[roulette.MaxBalanceHistory-1])
}

func TestStatsDerivedValues(t *testing.T) {
	m := NewMartingale(dec(100), nil)
	empty := m.Stats()
	assert.Zero(t, empty.WinRate())
	assert.True(t, empty.AverageWager().IsZero())
	assert.True(t, empty.AveragePayout().IsZero())

	play(t, m, blackSpot)
	play(t, m, blackSpot)
	play(t, m, redSpot)
	play(t, m, redSpot)

	st := m.Stats()
	assert.InDelta(t, 0.5, st.WinRate(), 1e-9)
	assertDec(t, 2, st.AverageWager())   // (1+2+4+1)/4
	assertDec(t, 10, st.TotalPayout)     // 8 + 2
	assertDec(t, 102, st.CurrentBalance) // 100 - 8 + 10
	assertDec(t, 2, st.NetProfit(dec(100)))
	assert.Equal(t, []float64{99, 97, 101, 102}, st.BalanceSeries())
}

// TestBrokeIsTerminalProperty checks that once a strategy is broke it never
// bets again and its balance never changes.
func TestBrokeIsTerminalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.SampledFrom([]string{IDFixed, IDMartingale, IDCocomo}).Draw(t, "strategy")
		initial := dec(rapid.Int64Range(1, 50).Draw(t, "initial"))
		base := dec(rapid.Int64Range(1, 10).Draw(t, "base"))

		s, err := NewDefaultRegistry().Build(id, initial, &Config{BaseAmount: base})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		rc := table()
		brokeAt := decimal.Decimal{}
		broke := false
		for i := 0; i < 200; i++ {
			spot := roulette.Spot(rapid.IntRange(-1, 36).Draw(t, "spot"))
			bets := s.NextBets(rc)

			if broke {
				if len(bets) != 0 {
					t.Fatalf("%s placed %d bets while broke", id, len(bets))
				}
			}
			s.Update(bets, spot)

			bal := s.Stats().CurrentBalance
			if broke && !bal.Equal(brokeAt) {
				t.Fatalf("%s balance moved from %s to %s while broke", id, brokeAt, bal)
			}
			if bal.IsNegative() {
				t.Fatalf("%s balance went negative: %s", id, bal)
			}
			if !s.IsLive() && !broke {
				broke = true
				brokeAt = bal
			}
		}
	})
}

// TestLedgerAccountingProperty checks that balance always equals initial
// minus wagered plus paid out, and counters add up.
func TestLedgerAccountingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := dec(rapid.Int64Range(1, 10000).Draw(t, "initial"))
		l := NewLedger(initial)

		rounds := rapid.IntRange(0, 100).Draw(t, "rounds")
		for i := 0; i < rounds; i++ {
			var bets []roulette.Bet
			if rapid.Bool().Draw(t, "bet") {
				bets = append(bets, roulette.NewRedBet(dec(rapid.Int64Range(1, 20).Draw(t, "amount"))))
			}
			l.Settle(bets, roulette.Spot(rapid.IntRange(-1, 36).Draw(t, "spot")))
		}

		st := l.Stats()
		want := initial.Sub(st.TotalWagered).Add(st.TotalPayout)
		if !st.CurrentBalance.Equal(want) {
			t.Fatalf("balance %s, want %s", st.CurrentBalance, want)
		}
		if st.WonCount+st.LostCount != st.BetCount {
			t.Fatalf("won %d + lost %d != bets %d", st.WonCount, st.LostCount, st.BetCount)
		}
		if st.MaximumBalance.LessThan(st.CurrentBalance) || st.MinimumBalance.GreaterThan(st.CurrentBalance) {
			t.Fatalf("watermarks [%s, %s] do not bracket %s", st.MinimumBalance, st.MaximumBalance, st.CurrentBalance)
		}
	})
}
