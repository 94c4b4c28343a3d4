package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalSource identifies the pool a withdrawal request draws from.
type WithdrawalSource string

const (
	WithdrawalSourceMainBalance       WithdrawalSource = "main_balance"
	WithdrawalSourceCashupBalance     WithdrawalSource = "cashup_balance"
	WithdrawalSourceCompoundingProfit WithdrawalSource = "compounding_profit"
)

// WithdrawalStatus is the request state. Approved and Rejected are terminal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "Pending"
	WithdrawalStatusApproved WithdrawalStatus = "Approved"
	WithdrawalStatusRejected WithdrawalStatus = "Rejected"
)

// Terminal reports whether no further transition is allowed.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}

// WithdrawalRequest is one buyer request to withdraw from a balance pool.
// Creating a request reserves nothing; funds move only at approval.
type WithdrawalRequest struct {
	gorm.Model
	BuyerID uint             `gorm:"index;not null"`
	Source  WithdrawalSource `gorm:"not null"`
	Amount  decimal.Decimal  `gorm:"type:numeric(10,2);not null"`
	Status  WithdrawalStatus `gorm:"default:'Pending'"`
	Date    time.Time
}
