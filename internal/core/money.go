package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Total accumulates JSON float amounts without binary rounding drift
type Total struct {
	d decimal.Decimal
}

func (t *Total) Add(v float64) {
	t.d = t.d.Add(decimal.NewFromFloat(v))
}

func (t Total) Decimal() decimal.Decimal {
	return t.d
}

func (t Total) Float64() float64 {
	f, _ := t.d.Float64()
	return f
}

// SavingsRate returns (base - spent) / base * 100, or 0 when base is not positive
func SavingsRate(base, spent Total) float64 {
	if !base.d.IsPositive() {
		return 0
	}
	f, _ := base.d.Sub(spent.d).Div(base.d).Mul(hundred).Float64()
	return f
}

// Difference returns a - b as a float
func Difference(a, b Total) float64 {
	f, _ := a.d.Sub(b.d).Float64()
	return f
}
