// Package transfer implements the transfer engine: moving value between a
// buyer's main balance and their deposit pools.
package transfer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "cashup/internal/errors"
	"cashup/internal/models"
	"cashup/internal/repositories"
	"cashup/internal/services/ledger"
)

// Result reports the balances left by a main->cashup transfer.
type Result struct {
	MainBalance   decimal.Decimal
	CashupBalance decimal.Decimal
}

// Service moves value between a buyer's pools. All operations require a
// positive amount and run as one atomic unit.
type Service interface {
	// ToCashup debits the main balance and credits the cashup pool,
	// creating the pool if the buyer has none yet.
	ToCashup(ctx context.Context, buyerID uint, amount decimal.Decimal, actorID uint) (*Result, error)
	// RequestOwingConversion stages an operator-mediated conversion; no money
	// moves until the request is reconciled.
	RequestOwingConversion(ctx context.Context, buyerID uint, amount decimal.Decimal, actorID uint) (decimal.Decimal, error)
	// ReconcileOwingRequest is the operator step: the staged amount becomes
	// available in the owing main balance and the request is cleared.
	ReconcileOwingRequest(ctx context.Context, owingDepositID uint, actorID uint) (*models.CashupOwingDeposit, error)
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

func (s *service) ToCashup(ctx context.Context, buyerID uint, amount decimal.Decimal, actorID uint) (*Result, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var res Result
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		b, err := tx.GetBuyerForUpdate(ctx, buyerID)
		if err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}
		if b.MainBalance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		dep, err := tx.GetCashupDepositForUpdate(ctx, buyerID)
		if err != nil {
			if !errors.Is(err, repositories.ErrCashupDepositNotFound) {
				return err
			}
			dep = &models.CashupDeposit{BuyerID: buyerID, CashupMainBalance: decimal.Zero}
			if err := tx.CreateCashupDeposit(ctx, dep); err != nil {
				return err
			}
		}

		prev := dep.ProfitFields
		b.MainBalance = b.MainBalance.Sub(amount)
		dep.CashupMainBalance = dep.CashupMainBalance.Add(amount)
		if err := ledger.SaveCashupDeposit(ctx, tx, b, prev, dep, actorID); err != nil {
			return err
		}

		if err := tx.CreateCashupTransferHistory(ctx, &models.CashupTransferHistory{
			BuyerID:   buyerID,
			Amount:    amount,
			Reference: uuid.NewString(),
			Date:      ledger.HistoryTime(),
		}); err != nil {
			return err
		}

		res = Result{MainBalance: b.MainBalance, CashupBalance: dep.CashupMainBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ledger.Invalidate(ctx, s.cache, buyerID)
	return &res, nil
}

func (s *service) RequestOwingConversion(ctx context.Context, buyerID uint, amount decimal.Decimal, actorID uint) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	var requested decimal.Decimal
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		if _, err := tx.GetBuyer(ctx, buyerID); err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}

		dep, err := tx.GetOwingDepositForUpdate(ctx, buyerID)
		if err != nil {
			if !errors.Is(err, repositories.ErrOwingDepositNotFound) {
				return err
			}
			dep = &models.CashupOwingDeposit{
				BuyerID:                buyerID,
				CashupOwingMainBalance: decimal.Zero,
			}
			if err := tx.CreateOwingDeposit(ctx, dep); err != nil {
				return err
			}
		}

		prev := dep.ProfitFields
		dep.RequestedCashupOwingMainBalance = dep.RequestedCashupOwingMainBalance.Add(amount)
		if err := ledger.SaveOwingDeposit(ctx, tx, prev, dep, actorID); err != nil {
			return err
		}

		if err := tx.CreateTransferHistory(ctx, &models.TransferHistory{
			BuyerID:              buyerID,
			CashupOwingDepositID: dep.ID,
			Amount:               amount,
			Reference:            uuid.NewString(),
			Date:                 ledger.HistoryTime(),
		}); err != nil {
			return err
		}

		requested = dep.RequestedCashupOwingMainBalance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	ledger.Invalidate(ctx, s.cache, buyerID)
	return requested, nil
}

func (s *service) ReconcileOwingRequest(ctx context.Context, owingDepositID uint, actorID uint) (*models.CashupOwingDeposit, error) {
	var out *models.CashupOwingDeposit
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		dep, err := tx.GetOwingDepositByIDForUpdate(ctx, owingDepositID)
		if err != nil {
			if errors.Is(err, repositories.ErrOwingDepositNotFound) {
				return domain.ErrNoPoolFound
			}
			return err
		}
		if !dep.RequestedCashupOwingMainBalance.IsPositive() {
			return domain.ErrNoPendingRequest
		}

		prev := dep.ProfitFields
		dep.CashupOwingMainBalance = dep.CashupOwingMainBalance.Add(dep.RequestedCashupOwingMainBalance)
		dep.RequestedCashupOwingMainBalance = decimal.Zero
		dep.Verified = false
		if err := ledger.SaveOwingDeposit(ctx, tx, prev, dep, actorID); err != nil {
			return err
		}

		out = dep
		return nil
	})
	if err != nil {
		return nil, err
	}

	ledger.Invalidate(ctx, s.cache, out.BuyerID)
	return out, nil
}
