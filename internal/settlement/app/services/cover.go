package services

import (
	"wheres-my-tab/internal/settlement/app/core"

	"github.com/shopspring/decimal"
)

// CoverAvailable reports whether the cover charge applies at all. Without a
// positive unit price and at least one guest every cover operation is a no-op.
func CoverAvailable(unitPrice decimal.Decimal, covers int) bool {
	return unitPrice.IsPositive() && covers > 0
}

func CoverAmount(unitPrice decimal.Decimal, covers int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(covers)))
}

func ExpectedWithCover(baseline, unitPrice decimal.Decimal, covers int) decimal.Decimal {
	return baseline.Add(CoverAmount(unitPrice, covers))
}

// IsCoverApplied infers from the stored total whether the cover charge is
// folded in. Totals above the cover-inclusive amount (tips, surcharges) still
// count as applied.
func IsCoverApplied(total, baseline, unitPrice decimal.Decimal, covers int) bool {
	if !CoverAvailable(unitPrice, covers) {
		return false
	}
	expected := ExpectedWithCover(baseline, unitPrice, covers)
	if total.Sub(expected).Abs().LessThan(core.Epsilon) {
		return true
	}
	return total.GreaterThanOrEqual(expected.Sub(core.Epsilon))
}

// TotalWithCover is the session total for the given cover decision.
func TotalWithCover(baseline, unitPrice decimal.Decimal, covers int, include bool) decimal.Decimal {
	if include && CoverAvailable(unitPrice, covers) {
		return ExpectedWithCover(baseline, unitPrice, covers)
	}
	return baseline
}
