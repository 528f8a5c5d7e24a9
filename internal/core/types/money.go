// Package types provides the ledger's numeric and time value types.
package types

import (
	"github.com/shopspring/decimal"
)

// MinorUnits is a monetary amount in minor currency units (cents).
// The ledger is single-currency, so amounts never carry a currency code.
type MinorUnits int64

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
func (m MinorUnits) Neg() MinorUnits  { return -m }

func (m MinorUnits) Abs() MinorUnits {
	if m < 0 {
		return -m
	}
	return m
}

// Decimal returns the amount as a decimal in minor units.
func (m MinorUnits) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// MinorUnitsFromDecimal rounds d half away from zero to whole minor units.
func MinorUnitsFromDecimal(d decimal.Decimal) MinorUnits {
	return MinorUnits(d.Round(0).IntPart())
}

// CostOf values qty at unitCost per whole unit, rounded to minor units.
func CostOf(unitCost MinorUnits, qty Quantity) MinorUnits {
	return MinorUnitsFromDecimal(unitCost.Decimal().Mul(qty.Decimal()))
}

// MovingAverageCost returns the per-unit cost after receiving addQty at addCost per unit
// on top of stock valued at avgCost per unit.
func MovingAverageCost(stock Quantity, avgCost MinorUnits, addQty Quantity, addCost MinorUnits) MinorUnits {
	total := stock.Decimal().Add(addQty.Decimal())
	if !total.IsPositive() {
		return addCost
	}
	value := stock.Decimal().Mul(avgCost.Decimal()).Add(addQty.Decimal().Mul(addCost.Decimal()))
	return MinorUnitsFromDecimal(value.Div(total))
}
