package roulette

import (
	"slices"

	"github.com/shopspring/decimal"
)

// MaxSpotHistory is the size of the spot history window.
const MaxSpotHistory = 100

// Context is the state of one simulation session: the table rules, the
// round counter and the most recent spots. Only the Simulator mutates it.
type Context struct {
	variant        Variant
	generateType   GenerateType
	initialBalance decimal.Decimal
	round          int
	history        []Spot
}

// NewContext creates an empty context for the given table rules.
func NewContext(variant Variant, generateType GenerateType, initialBalance decimal.Decimal) *Context {
	return &Context{
		variant:        variant,
		generateType:   generateType,
		initialBalance: initialBalance,
		history:        make([]Spot, 0, MaxSpotHistory),
	}
}

func (c *Context) Variant() Variant                { return c.variant }
func (c *Context) GenerateType() GenerateType      { return c.generateType }
func (c *Context) InitialBalance() decimal.Decimal { return c.initialBalance }

// Round returns the number of rounds played since the last reset.
func (c *Context) Round() int { return c.round }

// LastSpot returns the most recent spot, or false before the first round.
func (c *Context) LastSpot() (Spot, bool) {
	if len(c.history) == 0 {
		return 0, false
	}
	return c.history[len(c.history)-1], true
}

// History returns a copy of the recent spots, oldest first.
func (c *Context) History() []Spot {
	return slices.Clone(c.history)
}

// Clone returns an independent copy of the context.
func (c *Context) Clone() *Context {
	cp := *c
	cp.history = slices.Clone(c.history)
	return &cp
}

// Validate checks the table rules before a round is played.
func (c *Context) Validate() error {
	if err := c.variant.Validate(); err != nil {
		return err
	}
	return c.generateType.Validate()
}

func (c *Context) record(spot Spot) {
	c.history = append(c.history, spot)
	if len(c.history) > MaxSpotHistory {
		c.history = slices.Delete(c.history, 0, len(c.history)-MaxSpotHistory)
	}
	c.round++
}

func (c *Context) reset() {
	c.round = 0
	c.history = c.history[:0]
}
