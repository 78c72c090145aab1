// Package roulette implements the roulette simulation engine: spot
// generation, bet evaluation, the strategy contract and the round simulator.
package roulette

import (
	"errors"
	"fmt"
	"strconv"
)

// Spot is a single wheel pocket. 0..36 are the numbered pockets and
// Spot00 is the American double zero.
type Spot int

const (
	// Spot0 is the single zero pocket.
	Spot0 Spot = 0
	// Spot00 is the double zero pocket, only present on American wheels.
	Spot00 Spot = -1
)

// Variant is the wheel rule-set.
type Variant string

const (
	VariantEuropean Variant = "EUROPEAN_STYLE"
	VariantAmerican Variant = "AMERICAN_STYLE"
	VariantOneTo36  Variant = "ONE_TO_36"
)

// GenerateType selects how the next spot is produced.
type GenerateType string

const (
	GenerateRandom          GenerateType = "RANDOM"
	GenerateRotationNumber  GenerateType = "ROTATION_NUMBER"
	GenerateRotationWheel   GenerateType = "ROTATION_WHEEL"
	GenerateRandomRedOnly   GenerateType = "RANDOM_RED_ONLY"
	GenerateRandomBlackOnly GenerateType = "RANDOM_BLACK_ONLY"
	GenerateRandomExceptOne GenerateType = "RANDOM_EXCEPT_ONE"
)

// Color of a pocket.
type Color string

const (
	ColorRed   Color = "red"
	ColorBlack Color = "black"
	ColorGreen Color = "green"
)

// Errors for spot handling
var (
	ErrInvalidSpot         = errors.New("invalid spot number")
	ErrInvalidVariant      = errors.New("unsupported roulette variant")
	ErrInvalidGenerateType = errors.New("unsupported spot generate type")
)

var (
	redNumbers = map[int]bool{
		1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
		14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
		25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
	}
	blackNumbers = map[int]bool{
		2: true, 4: true, 6: true, 8: true, 10: true, 11: true,
		13: true, 15: true, 17: true, 20: true, 22: true, 24: true,
		26: true, 28: true, 29: true, 31: true, 33: true, 35: true,
	}
)

// NewSpot returns the spot for a pocket number. -1 maps to the double zero.
func NewSpot(number int) (Spot, error) {
	if number == -1 || (number >= 0 && number <= 36) {
		return Spot(number), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidSpot, number)
}

// Number returns the pocket number (-1 for the double zero).
func (s Spot) Number() int {
	return int(s)
}

// String returns the display name of the spot.
func (s Spot) String() string {
	if s == Spot00 {
		return "00"
	}
	return strconv.Itoa(int(s))
}

func (s Spot) IsRed() bool   { return redNumbers[int(s)] }
func (s Spot) IsBlack() bool { return blackNumbers[int(s)] }
func (s Spot) IsGreen() bool { return !s.IsRed() && !s.IsBlack() }

// IsEven reports an even numbered pocket. Zero and double zero have no parity.
func (s Spot) IsEven() bool { return s > 0 && s%2 == 0 }

// IsOdd reports an odd numbered pocket.
func (s Spot) IsOdd() bool { return s > 0 && s%2 == 1 }

// IsLow reports 1-18.
func (s Spot) IsLow() bool { return s >= 1 && s <= 18 }

// IsHigh reports 19-36.
func (s Spot) IsHigh() bool { return s >= 19 && s <= 36 }

// Color returns the pocket color.
func (s Spot) Color() Color {
	switch {
	case s.IsRed():
		return ColorRed
	case s.IsBlack():
		return ColorBlack
	default:
		return ColorGreen
	}
}

// Dozen returns 1, 2 or 3 for numbered pockets and 0 for the zeros.
func (s Spot) Dozen() int {
	if s < 1 || s > 36 {
		return 0
	}
	return (int(s)-1)/12 + 1
}

// Column returns 1, 2 or 3 for numbered pockets and 0 for the zeros.
func (s Spot) Column() int {
	if s < 1 || s > 36 {
		return 0
	}
	return (int(s)-1)%3 + 1
}

// Classification is the full set of outside-bet properties of a spot.
type Classification struct {
	Color  Color
	Even   bool
	Odd    bool
	Low    bool
	High   bool
	Dozen  int
	Column int
}

// Classify returns every outside-bet property of a spot at once.
func Classify(s Spot) Classification {
	return Classification{
		Color:  s.Color(),
		Even:   s.IsEven(),
		Odd:    s.IsOdd(),
		Low:    s.IsLow(),
		High:   s.IsHigh(),
		Dozen:  s.Dozen(),
		Column: s.Column(),
	}
}

// AvailableSpots returns the pockets present on a variant, ordered
// 0, 00, 1..36 with the zeros dropped where the variant lacks them.
func AvailableSpots(v Variant) ([]Spot, error) {
	var spots []Spot
	switch v {
	case VariantEuropean:
		spots = make([]Spot, 0, 37)
		spots = append(spots, Spot0)
	case VariantAmerican:
		spots = make([]Spot, 0, 38)
		spots = append(spots, Spot0, Spot00)
	case VariantOneTo36:
		spots = make([]Spot, 0, 36)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidVariant, v)
	}
	for n := 1; n <= 36; n++ {
		spots = append(spots, Spot(n))
	}
	return spots, nil
}

// Validate checks that the variant is known.
func (v Variant) Validate() error {
	switch v {
	case VariantEuropean, VariantAmerican, VariantOneTo36:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVariant, v)
	}
}

// Validate checks that the generate type is known.
func (g GenerateType) Validate() error {
	switch g {
	case GenerateRandom, GenerateRotationNumber, GenerateRotationWheel,
		GenerateRandomRedOnly, GenerateRandomBlackOnly, GenerateRandomExceptOne:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGenerateType, g)
	}
}
