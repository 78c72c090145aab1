package roulette

import (
	"fmt"
	"math/rand/v2"
)

// Physical wheel orders, clockwise from zero.
var (
	oneTo36Wheel = []Spot{
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18,
		19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 36,
	}

	europeanWheel = []Spot{
		0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13, 36, 11, 30, 8, 23, 10,
		5, 24, 16, 33, 1, 20, 14, 31, 9, 22, 18, 29, 7, 28, 12, 35, 3, 26,
	}

	americanWheel = []Spot{
		0, 28, 9, 26, 30, 11, 7, 20, 32, 17, 5, 22, 34, 15, 3, 24, 36, 13, 1,
		Spot00, 27, 10, 25, 29, 12, 8, 19, 31, 18, 6, 21, 33, 16, 4, 23, 35, 14, 2,
	}
)

// WheelLayout returns a copy of the physical pocket order of a variant.
func WheelLayout(v Variant) ([]Spot, error) {
	var wheel []Spot
	switch v {
	case VariantOneTo36:
		wheel = oneTo36Wheel
	case VariantEuropean:
		wheel = europeanWheel
	case VariantAmerican:
		wheel = americanWheel
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidVariant, v)
	}
	return append([]Spot(nil), wheel...), nil
}

// RandomSource yields uniform integers in [0, n). *rand.Rand from
// math/rand/v2 satisfies it; tests substitute deterministic sources.
type RandomSource interface {
	IntN(n int) int
}

// NewRandomSource returns a PCG backed source. A zero seed picks a random one.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NextSpot draws the next spot for the context's variant and generate type.
func NextSpot(rc *Context, rnd RandomSource) (Spot, error) {
	available, err := AvailableSpots(rc.variant)
	if err != nil {
		return 0, err
	}

	switch rc.generateType {
	case GenerateRandom:
		return pick(available, rnd), nil

	case GenerateRotationNumber:
		return available[rc.round%len(available)], nil

	case GenerateRotationWheel:
		wheel, err := WheelLayout(rc.variant)
		if err != nil {
			return 0, err
		}
		return wheel[rc.round%len(wheel)], nil

	case GenerateRandomRedOnly:
		return pick(filter(available, Spot.IsRed), rnd), nil

	case GenerateRandomBlackOnly:
		return pick(filter(available, Spot.IsBlack), rnd), nil

	case GenerateRandomExceptOne:
		return pick(filter(available, func(s Spot) bool { return s != 1 }), rnd), nil

	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGenerateType, rc.generateType)
	}
}

func pick(candidates []Spot, rnd RandomSource) Spot {
	return candidates[rnd.IntN(len(candidates))]
}

func filter(spots []Spot, keep func(Spot) bool) []Spot {
	out := make([]Spot, 0, len(spots))
	for _, s := range spots {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
