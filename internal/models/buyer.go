package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Buyer is the platform account that owns every balance pool.
type Buyer struct {
	gorm.Model
	Name             string          `gorm:"not null"`
	PhoneNumber      string          `gorm:"uniqueIndex;not null"`
	Username         string          `gorm:"uniqueIndex;not null"`
	MembershipStatus bool            `gorm:"default:false"`
	MainBalance      decimal.Decimal `gorm:"type:numeric(10,2);default:0"`
	DateOfBirth      *time.Time
	Gender           string `gorm:"size:1"`
	Address          string
	ImageURL         string
}

func (b *Buyer) BeforeCreate(tx *gorm.DB) error {
	// Phone number doubles as the username when none is given
	if b.Username == "" {
		b.Username = b.PhoneNumber
	}
	return nil
}
