package venue

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// Fee rates are basis points of traded notional.
var feeRateScale = decimal.NewFromInt(10000)

// Account books venue-side fees in exact decimal. Negative maker rates
// are rebates paid to the client.
type Account struct {
	reg *schema.Registry

	makerFees decimal.Decimal
	takerFees decimal.Decimal
	notional  decimal.Decimal
}

// NewAccount creates an account charging the registry's fee schedule.
func NewAccount(reg *schema.Registry) *Account {
	return &Account{reg: reg}
}

// Fill books one fill and returns its fee in cents, rounded to the
// nearest cent, for the status report.
func (a *Account) Fill(inst schema.Instrument, price schema.Price, volume schema.Volume, maker bool) schema.Fees {
	notional := decimal.NewFromInt(int64(price)).Mul(decimal.NewFromInt(int64(volume)))
	fee := notional.Mul(a.rate(inst, maker)).Div(feeRateScale).Round(0)

	a.notional = a.notional.Add(notional)
	if maker {
		a.makerFees = a.makerFees.Add(fee)
	} else {
		a.takerFees = a.takerFees.Add(fee)
	}
	return schema.Fees(fee.IntPart())
}

func (a *Account) rate(inst schema.Instrument, maker bool) decimal.Decimal {
	spec, ok := a.reg.Spec(inst)
	if !ok {
		return decimal.Zero
	}
	if maker {
		return decimal.NewFromInt(int64(spec.MakerFee))
	}
	return decimal.NewFromInt(int64(spec.TakerFee))
}

// MakerFees returns the accumulated maker fees in cents.
func (a *Account) MakerFees() schema.Fees {
	return schema.Fees(a.makerFees.IntPart())
}

// TakerFees returns the accumulated taker fees in cents.
func (a *Account) TakerFees() schema.Fees {
	return schema.Fees(a.takerFees.IntPart())
}

// TotalFees returns all accumulated fees in cents.
func (a *Account) TotalFees() schema.Fees {
	return schema.Fees(a.makerFees.Add(a.takerFees).IntPart())
}

// TradedNotional returns the total traded notional in cents.
func (a *Account) TradedNotional() decimal.Decimal {
	return a.notional
}
