// Package ledger holds the pieces shared by every money-movement service:
// the audit trail recorder, the membership invariant, and the single save
// paths for the two deposit pools.
package ledger

import (
	"context"
	"time"

	"cashup/internal/models"
	"cashup/internal/repositories"
)

// Cache is the subset of the cache service the ledger services use. A nil
// Cache disables caching.
type Cache interface {
	GetBuyer(ctx context.Context, buyerID uint) (*models.Buyer, error)
	CacheBuyer(ctx context.Context, buyer *models.Buyer) error
	GetCashupDeposit(ctx context.Context, buyerID uint) (*models.CashupDeposit, error)
	CacheCashupDeposit(ctx context.Context, dep *models.CashupDeposit) error
	GetOwingDeposit(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error)
	CacheOwingDeposit(ctx context.Context, dep *models.CashupOwingDeposit) error
	InvalidateBuyer(ctx context.Context, buyerID uint) error
}

// Actor resolves attribution for a mutation: the explicit actor when given,
// otherwise the owning buyer.
func Actor(actorID, buyerID uint) uint {
	if actorID != 0 {
		return actorID
	}
	return buyerID
}

// HistoryTime returns the timestamp carried by history rows, truncated to
// the minute.
func HistoryTime() time.Time {
	return time.Now().Truncate(time.Minute)
}

var trackedProfitFields = []string{
	models.FieldDailyProfit,
	models.FieldCompoundingProfit,
	models.FieldMonthlyProfit,
	models.FieldProductProfit,
	models.FieldDailyCompoundingProfit,
	models.FieldMonthlyCompoundingProfit,
}

// SaveCashupDeposit is the only path that persists a cashup deposit. It
// appends one audit row per changed profit field (comparing against the
// snapshot taken when the row was locked), keeps the buyer's membership
// status in sync with the pool balance, and saves buyer and deposit on the
// caller's transaction handle. Saving with no changed profit fields appends
// nothing.
func SaveCashupDeposit(ctx context.Context, repo repositories.LedgerRepository, buyer *models.Buyer, prev models.ProfitFields, dep *models.CashupDeposit, actorID uint) error {
	dep.UpdatedByID = Actor(actorID, dep.BuyerID)

	before := prev.Snapshot()
	after := dep.ProfitFields.Snapshot()
	now := HistoryTime()
	for _, field := range trackedProfitFields {
		if before[field].Equal(after[field]) {
			continue
		}
		row := &models.CashupProfitHistory{
			CashupDepositID: dep.ID,
			FieldName:       field,
			PreviousValue:   before[field],
			NewValue:        after[field],
			UpdatedByID:     dep.UpdatedByID,
			ChangeTimestamp: now,
		}
		if err := repo.CreateCashupProfitHistory(ctx, row); err != nil {
			return err
		}
	}

	// cashup_main_balance > 0 <=> membership_status
	buyer.MembershipStatus = dep.CashupMainBalance.IsPositive()
	if err := repo.SaveBuyer(ctx, buyer); err != nil {
		return err
	}
	return repo.SaveCashupDeposit(ctx, dep)
}

// SaveOwingDeposit is the only path that persists a cashup owing deposit.
// Besides the audit rows it flips related transfer histories to verified once
// the staged request balance is back to zero.
func SaveOwingDeposit(ctx context.Context, repo repositories.LedgerRepository, prev models.ProfitFields, dep *models.CashupOwingDeposit, actorID uint) error {
	dep.UpdatedByID = Actor(actorID, dep.BuyerID)

	before := prev.Snapshot()
	after := dep.ProfitFields.Snapshot()
	now := HistoryTime()
	for _, field := range trackedProfitFields {
		if before[field].Equal(after[field]) {
			continue
		}
		row := &models.CashupOwingProfitHistory{
			CashupOwingDepositID: dep.ID,
			FieldName:            field,
			PreviousValue:        before[field],
			NewValue:             after[field],
			UpdatedByID:          dep.UpdatedByID,
			ChangeTimestamp:      now,
		}
		if err := repo.CreateOwingProfitHistory(ctx, row); err != nil {
			return err
		}
	}

	if err := repo.SaveOwingDeposit(ctx, dep); err != nil {
		return err
	}

	if dep.RequestedCashupOwingMainBalance.IsZero() {
		return repo.MarkTransferHistoriesVerified(ctx, dep.ID)
	}
	return nil
}

// Invalidate drops the buyer's cached snapshots if a cache is configured.
func Invalidate(ctx context.Context, c Cache, buyerID uint) {
	if c == nil {
		return
	}
	// Cache staleness is tolerable; mutation outcome is not tied to it.
	_ = c.InvalidateBuyer(ctx, buyerID)
}
