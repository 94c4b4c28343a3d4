// Package reconcile applies verified mobile-money transactions to a buyer's
// pools. The waterfall draws down the owing DPS sub-balance first, then the
// owing main balance, and credits any overflow to the buyer's main balance.
package reconcile

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

// CreateInput carries an external payment record as reported by the gateway.
type CreateInput struct {
	BuyerID       uint
	TransactionID string
	PhoneNumber   string
	Amount        decimal.Decimal
	Method        string
}

// Service records external transactions and reconciles them exactly once.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.BuyerTransaction, error)
	// Verify marks the transaction verified and runs the reconciliation
	// waterfall. A transaction that has already been reconciled is refused;
	// re-saving never re-runs the waterfall.
	Verify(ctx context.Context, transactionID uint, actorID uint) (*models.BuyerTransaction, error)
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

func (s *service) Create(ctx context.Context, input CreateInput) (*models.BuyerTransaction, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	switch input.Method {
	case models.MethodBkash, models.MethodNagad, models.MethodRocket:
	default:
		return nil, errors.New("unknown payment method")
	}

	tx := &models.BuyerTransaction{
		BuyerID:       input.BuyerID,
		TransactionID: input.TransactionID,
		PhoneNumber:   input.PhoneNumber,
		Amount:        input.Amount,
		Method:        input.Method,
		Date:          time.Now(),
	}
	err := s.repo.WithinTx(ctx, func(r repositories.LedgerRepository) error {
		if _, err := r.GetBuyer(ctx, input.BuyerID); err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}
		return r.CreateTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *service) Verify(ctx context.Context, transactionID uint, actorID uint) (*models.BuyerTransaction, error) {
	var out *models.BuyerTransaction
	err := s.repo.WithinTx(ctx, func(r repositories.LedgerRepository) error {
		btx, err := r.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if btx.Reconciled {
			return domain.ErrAlreadyReconciled
		}

		b, err := r.GetBuyerForUpdate(ctx, btx.BuyerID)
		if err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}

		owing, err := s.owingForUpdate(ctx, r, btx.BuyerID)
		if err != nil {
			return err
		}
		cashup, err := s.cashupForUpdate(ctx, r, btx.BuyerID)
		if err != nil {
			return err
		}

		prevOwing := owing.ProfitFields
		prevCashup := cashup.ProfitFields
		applyWaterfall(btx.Amount, b, owing, cashup)

		if err := ledger.SaveOwingDeposit(ctx, r, prevOwing, owing, actorID); err != nil {
			return err
		}
		if err := ledger.SaveCashupDeposit(ctx, r, b, prevCashup, cashup, actorID); err != nil {
			return err
		}

		btx.Verified = true
		btx.Reconciled = true
		if err := r.SaveTransaction(ctx, btx); err != nil {
			return err
		}
		out = btx
		return nil
	})
	if err != nil {
		return nil, err
	}

	ledger.Invalidate(ctx, s.cache, out.BuyerID)
	return out, nil
}

// applyWaterfall distributes amount across the pools. Total value is
// preserved: whatever leaves dps and the owing balance reappears in the
// cashup pool or the buyer's main balance.
func applyWaterfall(amount decimal.Decimal, b *models.Buyer, owing *models.CashupOwingDeposit, cashup *models.CashupDeposit) {
	if !owing.CashupOwingDPS.IsPositive() {
		b.MainBalance = b.MainBalance.Add(amount)
		return
	}

	if amount.LessThanOrEqual(owing.CashupOwingDPS) {
		owing.CashupOwingDPS = owing.CashupOwingDPS.Sub(amount)
		cashup.CashupMainBalance = cashup.CashupMainBalance.Add(amount)
		return
	}

	cashup.CashupMainBalance = cashup.CashupMainBalance.Add(owing.CashupOwingDPS)
	remaining := amount.Sub(owing.CashupOwingDPS)
	owing.CashupOwingDPS = decimal.Zero

	if remaining.LessThanOrEqual(owing.CashupOwingMainBalance) {
		owing.CashupOwingMainBalance = owing.CashupOwingMainBalance.Sub(remaining)
		b.MainBalance = b.MainBalance.Add(remaining)
		return
	}

	b.MainBalance = b.MainBalance.Add(remaining.Sub(owing.CashupOwingMainBalance))
	owing.CashupOwingMainBalance = decimal.Zero
}

// owingForUpdate locks the buyer's owing deposit, creating a zero-balance one
// if the buyer has none.
func (s *service) owingForUpdate(ctx context.Context, r repositories.LedgerRepository, buyerID uint) (*models.CashupOwingDeposit, error) {
	dep, err := r.GetOwingDepositForUpdate(ctx, buyerID)
	if err == nil {
		return dep, nil
	}
	if !errors.Is(err, repositories.ErrOwingDepositNotFound) {
		return nil, err
	}
	dep = &models.CashupOwingDeposit{
		BuyerID:                buyerID,
		CashupOwingMainBalance: decimal.Zero,
	}
	if err := r.CreateOwingDeposit(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

func (s *service) cashupForUpdate(ctx context.Context, r repositories.LedgerRepository, buyerID uint) (*models.CashupDeposit, error) {
	dep, err := r.GetCashupDepositForUpdate(ctx, buyerID)
	if err == nil {
		return dep, nil
	}
	if !errors.Is(err, repositories.ErrCashupDepositNotFound) {
		return nil, err
	}
	dep = &models.CashupDeposit{
		BuyerID:           buyerID,
		CashupMainBalance: decimal.Zero,
	}
	if err := r.CreateCashupDeposit(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}
