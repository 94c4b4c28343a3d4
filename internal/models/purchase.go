package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	gorm.Model
	Name string `gorm:"not null"`
}

// Item is a catalog product. Prices are snapshotted onto purchases at order
// placement.
type Item struct {
	gorm.Model
	Name          string `gorm:"not null"`
	Description   string
	IsAvailable   bool            `gorm:"default:true"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	DiscountPrice decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	MembersPrice  decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	CategoryID    *uint
	ImageURL      string
}

// Purchase is one carted or settled order line. Confirmed+Paid flips only
// through purchase settlement, which debits the buyer's main balance.
type Purchase struct {
	gorm.Model
	BuyerID              uint `gorm:"index;not null"`
	ItemID               *uint
	Quantity             uint            `gorm:"not null"`
	TotalPrice           decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	DiscountTotalPrice   decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	MembershipPrice      decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	TotalMembershipPrice decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	Confirmed            bool            `gorm:"default:false"`
	Paid                 bool            `gorm:"default:false"`
}
