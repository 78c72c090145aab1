package roulette

import (
	"slices"

	"github.com/shopspring/decimal"
)

// BetType represents the kind of wager placed on the layout.
type BetType string

const (
	BetTypeStraight     BetType = "STRAIGHT"
	BetTypeSplit        BetType = "SPLIT"
	BetTypeStreet       BetType = "STREET"
	BetTypeCorner       BetType = "CORNER"
	BetTypeBasket       BetType = "BASKET"
	BetTypeSixLine      BetType = "SIXLINE"
	BetTypeRed          BetType = "RED"
	BetTypeBlack        BetType = "BLACK"
	BetTypeEven         BetType = "EVEN"
	BetTypeOdd          BetType = "ODD"
	BetTypeLow          BetType = "LOW"
	BetTypeHigh         BetType = "HIGH"
	BetTypeFirstDozen   BetType = "FIRST_DOZEN"
	BetTypeSecondDozen  BetType = "SECOND_DOZEN"
	BetTypeThirdDozen   BetType = "THIRD_DOZEN"
	BetTypeFirstColumn  BetType = "FIRST_COLUMN"
	BetTypeSecondColumn BetType = "SECOND_COLUMN"
	BetTypeThirdColumn  BetType = "THIRD_COLUMN"
)

// Bet is a single wager. Payout is the "N to 1" multiplier and is always
// taken from PayoutMultiplier; construct bets with NewBet or the typed helpers.
type Bet struct {
	Type   BetType         `json:"type"`
	Spots  []Spot          `json:"spots,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	Payout int64           `json:"payout"`
}

// PayoutMultiplier returns the standard "N to 1" payout for a bet type.
// Unknown types pay 1.
func PayoutMultiplier(t BetType) int64 {
	switch t {
	case BetTypeStraight:
		return 35
	case BetTypeSplit:
		return 17
	case BetTypeStreet:
		return 11
	case BetTypeCorner:
		return 8
	case BetTypeBasket:
		return 6
	case BetTypeSixLine:
		return 5
	case BetTypeFirstDozen, BetTypeSecondDozen, BetTypeThirdDozen,
		BetTypeFirstColumn, BetTypeSecondColumn, BetTypeThirdColumn:
		return 2
	default:
		return 1
	}
}

// DisplayName returns the layout label of a bet type.
func (t BetType) DisplayName() string {
	switch t {
	case BetTypeStraight:
		return "Straight"
	case BetTypeSplit:
		return "Split"
	case BetTypeStreet:
		return "Street"
	case BetTypeCorner:
		return "Corner"
	case BetTypeBasket:
		return "Basket"
	case BetTypeSixLine:
		return "Six Line"
	case BetTypeRed:
		return "Red"
	case BetTypeBlack:
		return "Black"
	case BetTypeEven:
		return "Even"
	case BetTypeOdd:
		return "Odd"
	case BetTypeLow:
		return "1-18"
	case BetTypeHigh:
		return "19-36"
	case BetTypeFirstDozen:
		return "1st Dozen"
	case BetTypeSecondDozen:
		return "2nd Dozen"
	case BetTypeThirdDozen:
		return "3rd Dozen"
	case BetTypeFirstColumn:
		return "1st Column"
	case BetTypeSecondColumn:
		return "2nd Column"
	case BetTypeThirdColumn:
		return "3rd Column"
	default:
		return string(t)
	}
}

// NewBet builds a bet with the payout filled from the standard table.
func NewBet(t BetType, spots []Spot, amount decimal.Decimal) Bet {
	return Bet{
		Type:   t,
		Spots:  slices.Clone(spots),
		Amount: amount,
		Payout: PayoutMultiplier(t),
	}
}

func NewRedBet(amount decimal.Decimal) Bet   { return NewBet(BetTypeRed, nil, amount) }
func NewBlackBet(amount decimal.Decimal) Bet { return NewBet(BetTypeBlack, nil, amount) }
func NewEvenBet(amount decimal.Decimal) Bet  { return NewBet(BetTypeEven, nil, amount) }
func NewOddBet(amount decimal.Decimal) Bet   { return NewBet(BetTypeOdd, nil, amount) }
func NewLowBet(amount decimal.Decimal) Bet   { return NewBet(BetTypeLow, nil, amount) }
func NewHighBet(amount decimal.Decimal) Bet  { return NewBet(BetTypeHigh, nil, amount) }

func NewFirstDozenBet(amount decimal.Decimal) Bet  { return NewBet(BetTypeFirstDozen, nil, amount) }
func NewSecondDozenBet(amount decimal.Decimal) Bet { return NewBet(BetTypeSecondDozen, nil, amount) }
func NewThirdDozenBet(amount decimal.Decimal) Bet  { return NewBet(BetTypeThirdDozen, nil, amount) }

func NewFirstColumnBet(amount decimal.Decimal) Bet  { return NewBet(BetTypeFirstColumn, nil, amount) }
func NewSecondColumnBet(amount decimal.Decimal) Bet { return NewBet(BetTypeSecondColumn, nil, amount) }
func NewThirdColumnBet(amount decimal.Decimal) Bet  { return NewBet(BetTypeThirdColumn, nil, amount) }

// NewStraightBet bets on a single pocket.
func NewStraightBet(spot Spot, amount decimal.Decimal) Bet {
	return NewBet(BetTypeStraight, []Spot{spot}, amount)
}

// Wins reports whether the bet wins on the drawn spot.
func (b Bet) Wins(spot Spot) bool {
	switch b.Type {
	case BetTypeStraight, BetTypeSplit, BetTypeStreet, BetTypeCorner,
		BetTypeBasket, BetTypeSixLine:
		return slices.Contains(b.Spots, spot)
	case BetTypeRed:
		return spot.IsRed()
	case BetTypeBlack:
		return spot.IsBlack()
	case BetTypeEven:
		return spot.IsEven()
	case BetTypeOdd:
		return spot.IsOdd()
	case BetTypeLow:
		return spot.IsLow()
	case BetTypeHigh:
		return spot.IsHigh()
	case BetTypeFirstDozen:
		return spot.Dozen() == 1
	case BetTypeSecondDozen:
		return spot.Dozen() == 2
	case BetTypeThirdDozen:
		return spot.Dozen() == 3
	case BetTypeFirstColumn:
		return spot.Column() == 1
	case BetTypeSecondColumn:
		return spot.Column() == 2
	case BetTypeThirdColumn:
		return spot.Column() == 3
	default:
		return false
	}
}

// Return is what the table hands back for the bet: the stake plus
// Amount*Payout winnings when it wins, zero when it loses.
func (b Bet) Return(spot Spot) decimal.Decimal {
	if !b.Wins(spot) {
		return decimal.Zero
	}
	return b.Amount.Mul(decimal.NewFromInt(b.Payout + 1))
}

// Evaluate reports whether bet wins on spot.
func Evaluate(bet Bet, spot Spot) bool {
	return bet.Wins(spot)
}

// TotalStake sums the amounts of all bets.
func TotalStake(bets []Bet) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(b.Amount)
	}
	return total
}

// TotalPayout sums what the winning bets return on spot.
func TotalPayout(bets []Bet, spot Spot) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bets {
		total = total.Add(b.Return(spot))
	}
	return total
}

// AnyWin reports whether at least one bet wins on spot.
func AnyWin(bets []Bet, spot Spot) bool {
	for _, b := range bets {
		if b.Wins(spot) {
			return true
		}
	}
	return false
}
