package pricing

import "merchantry.io/app/pkg/money"

// TaxStrategy computes tax for one line subtotal, in minor units. Tax is
// store-configuration-driven; jurisdiction engines plug in behind this
// interface without touching the calculator.
type TaxStrategy interface {
	LineTax(lineSubtotalCents int64) int64
}

// FlatRate taxes every line at a fixed basis-point rate, rounding half-up
// per line before summation.
type FlatRate struct {
	Bps int64
}

func (f FlatRate) LineTax(lineSubtotalCents int64) int64 {
	return money.ApplyBps(lineSubtotalCents, f.Bps)
}

// NoTax is used by stores with tax handled outside the platform.
type NoTax struct{}

func (NoTax) LineTax(int64) int64 { return 0 }
