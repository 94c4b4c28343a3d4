// Package buyer manages buyer accounts and direct main-balance deposits.
package buyer

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	domain "cashup/internal/errors"
	"cashup/internal/models"
	"cashup/internal/repositories"
	"cashup/internal/services/ledger"
)

// CreateInput carries the identity fields for a new buyer.
type CreateInput struct {
	Name        string
	PhoneNumber string
	Username    string
	DateOfBirth *time.Time
	Gender      string
	Address     string
}

// Service manages buyers and their balance reads.
type Service interface {
	// Create registers a buyer together with one zero-balance CashupDeposit
	// and one zero-balance CashupOwingDeposit, as a single atomic unit.
	Create(ctx context.Context, input CreateInput) (*models.Buyer, error)
	Get(ctx context.Context, buyerID uint) (*models.Buyer, error)
	GetCashupDeposit(ctx context.Context, buyerID uint) (*models.CashupDeposit, error)
	GetOwingDeposit(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error)
	// Deposit credits the main balance and returns the new balance.
	Deposit(ctx context.Context, buyerID uint, amount decimal.Decimal) (decimal.Decimal, error)
	ListCashupProfitHistory(ctx context.Context, buyerID uint) ([]models.CashupProfitHistory, error)
	ListOwingProfitHistory(ctx context.Context, buyerID uint) ([]models.CashupOwingProfitHistory, error)
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

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Buyer, error) {
	b := &models.Buyer{
		Name:        input.Name,
		PhoneNumber: input.PhoneNumber,
		Username:    input.Username,
		DateOfBirth: input.DateOfBirth,
		Gender:      input.Gender,
		Address:     input.Address,
		MainBalance: decimal.Zero,
	}

	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		if err := tx.CreateBuyer(ctx, b); err != nil {
			return err
		}
		if err := tx.CreateCashupDeposit(ctx, &models.CashupDeposit{
			BuyerID:           b.ID,
			CashupMainBalance: decimal.Zero,
			UpdatedByID:       b.ID,
		}); err != nil {
			return err
		}
		return tx.CreateOwingDeposit(ctx, &models.CashupOwingDeposit{
			BuyerID:                         b.ID,
			CashupOwingMainBalance:          decimal.Zero,
			RequestedCashupOwingMainBalance: decimal.Zero,
			CashupOwingDPS:                  decimal.Zero,
			UpdatedByID:                     b.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Get(ctx context.Context, buyerID uint) (*models.Buyer, error) {
	if s.cache != nil {
		if b, err := s.cache.GetBuyer(ctx, buyerID); err == nil && b != nil {
			return b, nil
		}
	}

	b, err := s.repo.GetBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, repositories.ErrBuyerNotFound) {
			return nil, domain.ErrMissingBuyer
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.CacheBuyer(ctx, b)
	}
	return b, nil
}

func (s *service) GetCashupDeposit(ctx context.Context, buyerID uint) (*models.CashupDeposit, error) {
	if s.cache != nil {
		if dep, err := s.cache.GetCashupDeposit(ctx, buyerID); err == nil && dep != nil {
			return dep, nil
		}
	}

	dep, err := s.repo.GetCashupDeposit(ctx, buyerID)
	if err != nil {
		if errors.Is(err, repositories.ErrCashupDepositNotFound) {
			return nil, domain.ErrNoPoolFound
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.CacheCashupDeposit(ctx, dep)
	}
	return dep, nil
}

func (s *service) GetOwingDeposit(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error) {
	if s.cache != nil {
		if dep, err := s.cache.GetOwingDeposit(ctx, buyerID); err == nil && dep != nil {
			return dep, nil
		}
	}

	dep, err := s.repo.GetOwingDeposit(ctx, buyerID)
	if err != nil {
		if errors.Is(err, repositories.ErrOwingDepositNotFound) {
			return nil, domain.ErrNoPoolFound
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.CacheOwingDeposit(ctx, dep)
	}
	return dep, nil
}

func (s *service) Deposit(ctx context.Context, buyerID uint, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	var newBalance decimal.Decimal
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		b, err := tx.GetBuyerForUpdate(ctx, buyerID)
		if err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}
		b.MainBalance = b.MainBalance.Add(amount)
		if err := tx.SaveBuyer(ctx, b); err != nil {
			return err
		}
		newBalance = b.MainBalance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	ledger.Invalidate(ctx, s.cache, buyerID)
	return newBalance, nil
}

func (s *service) ListCashupProfitHistory(ctx context.Context, buyerID uint) ([]models.CashupProfitHistory, error) {
	dep, err := s.GetCashupDeposit(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCashupProfitHistory(ctx, dep.ID)
}

func (s *service) ListOwingProfitHistory(ctx context.Context, buyerID uint) ([]models.CashupOwingProfitHistory, error) {
	dep, err := s.GetOwingDeposit(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOwingProfitHistory(ctx, dep.ID)
}
