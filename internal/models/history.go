package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashupProfitHistory is an append-only audit row recording one profit field
// change on a CashupDeposit. Never mutated or deleted.
type CashupProfitHistory struct {
	gorm.Model
	CashupDepositID uint            `gorm:"index;not null"`
	FieldName       string          `gorm:"not null"`
	PreviousValue   decimal.Decimal `gorm:"type:numeric(10,2)"`
	NewValue        decimal.Decimal `gorm:"type:numeric(10,2)"`
	UpdatedByID     uint            `gorm:"default:0"`
	ChangeTimestamp time.Time
}

// CashupOwingProfitHistory is the owing-pool counterpart of
// CashupProfitHistory.
type CashupOwingProfitHistory struct {
	gorm.Model
	CashupOwingDepositID uint            `gorm:"index;not null"`
	FieldName            string          `gorm:"not null"`
	PreviousValue        decimal.Decimal `gorm:"type:numeric(10,2)"`
	NewValue             decimal.Decimal `gorm:"type:numeric(10,2)"`
	UpdatedByID          uint            `gorm:"default:0"`
	ChangeTimestamp      time.Time
}

// TransferHistory records a staged transfer into the owing pool. Verified is
// set once the operator has fully processed the request (the owing deposit's
// requested balance is back to zero).
type TransferHistory struct {
	gorm.Model
	BuyerID              uint            `gorm:"index;not null"`
	CashupOwingDepositID uint            `gorm:"index"`
	Amount               decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Reference            string          `gorm:"uniqueIndex;not null"`
	Verified             bool            `gorm:"default:false"`
	Date                 time.Time
}

// CashupTransferHistory records a main->cashup transfer.
type CashupTransferHistory struct {
	gorm.Model
	BuyerID   uint            `gorm:"index;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Reference string          `gorm:"uniqueIndex;not null"`
	Date      time.Time
}
