package payments

import "github.com/shopspring/decimal"

// Комиссия процессинга: 2.9% + $0.30, округление до цента.
var (
	feeRate  = decimal.NewFromFloat(0.029)
	feeFixed = decimal.NewFromFloat(0.30)
)

func ComputeFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(feeRate).Add(feeFixed).Round(2)
}

// TotalWithFee возвращает сумму списания: взнос плюс комиссия.
func TotalWithFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Add(ComputeFee(amount))
}
