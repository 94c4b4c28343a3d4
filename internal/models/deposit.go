package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tracked profit field names, as they appear in audit history rows.
const (
	FieldDailyProfit              = "daily_profit"
	FieldCompoundingProfit        = "compounding_profit"
	FieldMonthlyProfit            = "monthly_profit"
	FieldProductProfit            = "product_profit"
	FieldDailyCompoundingProfit   = "daily_compounding_profit"
	FieldMonthlyCompoundingProfit = "monthly_compounding_profit"
)

// ProfitFields groups the accumulators shared by both deposit pools.
type ProfitFields struct {
	DailyProfit              decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	CompoundingProfit        decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	MonthlyProfit            decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	ProductProfit            decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	DailyCompoundingProfit   decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	MonthlyCompoundingProfit decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
}

// Snapshot returns the tracked fields keyed by column name, for audit diffing.
func (p ProfitFields) Snapshot() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		FieldDailyProfit:              p.DailyProfit,
		FieldCompoundingProfit:        p.CompoundingProfit,
		FieldMonthlyProfit:            p.MonthlyProfit,
		FieldProductProfit:            p.ProductProfit,
		FieldDailyCompoundingProfit:   p.DailyCompoundingProfit,
		FieldMonthlyCompoundingProfit: p.MonthlyCompoundingProfit,
	}
}

// CashupDeposit is the investment-style pool. A positive main balance confers
// membership status on the owning buyer.
type CashupDeposit struct {
	gorm.Model
	BuyerID           uint            `gorm:"index;not null"`
	CashupMainBalance decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	ProfitFields      `gorm:"embedded"`
	Withdraw            decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	CompoundingWithdraw decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	UpdatedByID         uint            `gorm:"default:0"`
}

// CashupOwingDeposit holds funds owed to the buyer pending conversion, with a
// DPS sub-balance drawn down before the owing main balance during
// reconciliation, and a staging field for operator-mediated conversion
// requests.
type CashupOwingDeposit struct {
	gorm.Model
	BuyerID                         uint            `gorm:"index;not null"`
	CashupOwingMainBalance          decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	RequestedCashupOwingMainBalance decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	CashupOwingDPS                  decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	Verified                        bool            `gorm:"default:false"`
	ProfitFields                    `gorm:"embedded"`
	Withdraw            decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	CompoundingWithdraw decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	UpdatedByID         uint            `gorm:"default:0"`
}
