// Package purchase implements purchase settlement: the atomic debit of a
// buyer's main balance against the snapshotted order price.
package purchase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	domain "cashup/internal/errors"
	"cashup/internal/models"
	"cashup/internal/repositories"
	"cashup/internal/services/ledger"
)

// Service manages the order lifecycle around settlement.
type Service interface {
	// PlaceOrder carts an item with prices snapshotted from the catalog.
	PlaceOrder(ctx context.Context, buyerID, itemID uint, quantity uint) (*models.Purchase, error)
	// Confirm settles the purchase: debit main balance, mark confirmed and
	// paid, all in one atomic unit. Fails with InsufficientFunds and no state
	// change when the balance does not cover the discounted total.
	Confirm(ctx context.Context, purchaseID uint) (*models.Purchase, error)
	ListCart(ctx context.Context, buyerID uint) ([]models.Purchase, error)
	ListConfirmed(ctx context.Context, buyerID uint) ([]models.Purchase, error)
}

type service struct {
	repo  repositories.LedgerRepository
	cache ledger.Cache
}

func NewService(repo repositories.LedgerRepository, cache ledger.Cache) Service {
	if repo == nil {
		panic("repo is required")
	}
	return &service{repo: repo, cache: cache}
}

func (s *service) PlaceOrder(ctx context.Context, buyerID, itemID uint, quantity uint) (*models.Purchase, error) {
	if quantity == 0 {
		return nil, domain.ErrInvalidAmount
	}

	var p *models.Purchase
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		if _, err := tx.GetBuyer(ctx, buyerID); err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}

		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if !item.IsAvailable {
			return errors.New("item is not available")
		}

		qty := decimal.NewFromInt(int64(quantity))
		// Item-level discount price wins over the list price when set.
		unit := item.Price
		if item.DiscountPrice.IsPositive() {
			unit = item.DiscountPrice
		}

		p = &models.Purchase{
			BuyerID:              buyerID,
			ItemID:               &item.ID,
			Quantity:             quantity,
			TotalPrice:           item.Price.Mul(qty),
			DiscountTotalPrice:   unit.Mul(qty),
			MembershipPrice:      item.MembersPrice,
			TotalMembershipPrice: item.MembersPrice.Mul(qty),
		}
		return tx.CreatePurchase(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Confirm(ctx context.Context, purchaseID uint) (*models.Purchase, error) {
	var p *models.Purchase
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		var err error
		p, err = tx.GetPurchaseForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if p.Confirmed && p.Paid {
			return domain.ErrAlreadyFinalized
		}

		b, err := tx.GetBuyerForUpdate(ctx, p.BuyerID)
		if err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}
		if b.MainBalance.LessThan(p.DiscountTotalPrice) {
			return domain.ErrInsufficientFunds
		}

		b.MainBalance = b.MainBalance.Sub(p.DiscountTotalPrice)
		if err := tx.SaveBuyer(ctx, b); err != nil {
			return err
		}

		p.Confirmed = true
		p.Paid = true
		return tx.SavePurchase(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	ledger.Invalidate(ctx, s.cache, p.BuyerID)
	return p, nil
}

func (s *service) ListCart(ctx context.Context, buyerID uint) ([]models.Purchase, error) {
	return s.repo.ListPurchasesByBuyer(ctx, buyerID, false)
}

func (s *service) ListConfirmed(ctx context.Context, buyerID uint) ([]models.Purchase, error) {
	return s.repo.ListPurchasesByBuyer(ctx, buyerID, true)
}
