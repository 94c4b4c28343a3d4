package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Mobile-money methods accepted for external payments.
const (
	MethodBkash  = "Bkash"
	MethodNagad  = "Nagad"
	MethodRocket = "Rocket"
)

// BuyerTransaction is an externally-sourced mobile-money payment record.
// Once an operator verifies it, the reconciliation waterfall applies its
// amount across the buyer's pools exactly once.
type BuyerTransaction struct {
	gorm.Model
	BuyerID       uint            `gorm:"index;not null"`
	TransactionID string          `gorm:"uniqueIndex;not null"`
	PhoneNumber   string          `gorm:"size:15;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	Method        string          `gorm:"size:10;default:'Bkash'"`
	Verified      bool            `gorm:"default:false"`
	Reconciled    bool            `gorm:"default:false"`
	Date          time.Time
}
