// Package withdrawal implements the withdrawal approval state machine.
// Requests start Pending; Approved and Rejected are terminal. Funds move only
// at approval, and a failed approval is recorded as Rejected so the trail
// shows a definitive outcome.
package withdrawal

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

// Outcome is the operator-visible result of an approval attempt.
type Outcome string

const (
	OutcomeApproved                  Outcome = "approved"
	OutcomeRejectedInsufficientFunds Outcome = "rejected_insufficient_funds"
	OutcomeRejectedNoPool            Outcome = "rejected_no_pool"
	OutcomeRejected                  Outcome = "rejected"
)

// Service manages withdrawal requests across the three balance pools.
type Service interface {
	// Request creates a Pending withdrawal. No funds are reserved.
	Request(ctx context.Context, buyerID uint, source models.WithdrawalSource, amount decimal.Decimal) (*models.WithdrawalRequest, error)
	// Approve transitions Pending->Approved and debits the source pool. An
	// insufficient pool or a missing pool forces the request to Rejected and
	// reports the reason in the outcome rather than an error.
	Approve(ctx context.Context, withdrawalID uint, actorID uint) (*models.WithdrawalRequest, Outcome, error)
	// Reject transitions Pending->Rejected.
	Reject(ctx context.Context, withdrawalID uint, actorID uint) (*models.WithdrawalRequest, error)
	List(ctx context.Context, buyerID uint, source models.WithdrawalSource) ([]models.WithdrawalRequest, error)
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

func (s *service) Request(ctx context.Context, buyerID uint, source models.WithdrawalSource, amount decimal.Decimal) (*models.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	switch source {
	case models.WithdrawalSourceMainBalance, models.WithdrawalSourceCashupBalance, models.WithdrawalSourceCompoundingProfit:
	default:
		return nil, errors.New("unknown withdrawal source")
	}

	w := &models.WithdrawalRequest{
		BuyerID: buyerID,
		Source:  source,
		Amount:  amount,
		Status:  models.WithdrawalStatusPending,
		Date:    time.Now(),
	}
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		if _, err := tx.GetBuyer(ctx, buyerID); err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}
		return tx.CreateWithdrawal(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *service) Approve(ctx context.Context, withdrawalID uint, actorID uint) (*models.WithdrawalRequest, Outcome, error) {
	var (
		w       *models.WithdrawalRequest
		outcome Outcome
	)
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		var err error
		w, err = tx.GetWithdrawalForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if w.Status.Terminal() {
			return domain.ErrAlreadyFinalized
		}

		b, err := tx.GetBuyerForUpdate(ctx, w.BuyerID)
		if err != nil {
			if errors.Is(err, repositories.ErrBuyerNotFound) {
				return domain.ErrMissingBuyer
			}
			return err
		}

		outcome, err = s.applyApproval(ctx, tx, w, b, actorID)
		if err != nil {
			return err
		}
		return tx.SaveWithdrawal(ctx, w)
	})
	if err != nil {
		return nil, "", err
	}

	ledger.Invalidate(ctx, s.cache, w.BuyerID)
	return w, outcome, nil
}

// applyApproval performs the pool debit for one approval attempt and sets the
// final status on w. It only returns an error for infrastructure failures;
// business rejections are encoded in the outcome.
func (s *service) applyApproval(ctx context.Context, tx repositories.LedgerRepository, w *models.WithdrawalRequest, b *models.Buyer, actorID uint) (Outcome, error) {
	switch w.Source {
	case models.WithdrawalSourceMainBalance:
		if b.MainBalance.LessThan(w.Amount) {
			w.Status = models.WithdrawalStatusRejected
			return OutcomeRejectedInsufficientFunds, nil
		}
		b.MainBalance = b.MainBalance.Sub(w.Amount)
		if err := tx.SaveBuyer(ctx, b); err != nil {
			return "", err
		}
		w.Status = models.WithdrawalStatusApproved
		return OutcomeApproved, nil

	case models.WithdrawalSourceCashupBalance:
		dep, err := tx.GetCashupDepositForUpdate(ctx, w.BuyerID)
		if err != nil {
			if errors.Is(err, repositories.ErrCashupDepositNotFound) {
				w.Status = models.WithdrawalStatusRejected
				return OutcomeRejectedNoPool, nil
			}
			return "", err
		}
		if dep.CashupMainBalance.LessThan(w.Amount) {
			w.Status = models.WithdrawalStatusRejected
			return OutcomeRejectedInsufficientFunds, nil
		}
		prev := dep.ProfitFields
		dep.CashupMainBalance = dep.CashupMainBalance.Sub(w.Amount)
		dep.Withdraw = dep.Withdraw.Add(w.Amount)
		b.MainBalance = b.MainBalance.Add(w.Amount)
		if err := ledger.SaveCashupDeposit(ctx, tx, b, prev, dep, actorID); err != nil {
			return "", err
		}
		w.Status = models.WithdrawalStatusApproved
		return OutcomeApproved, nil

	case models.WithdrawalSourceCompoundingProfit:
		dep, err := tx.GetCashupDepositForUpdate(ctx, w.BuyerID)
		if err != nil {
			if errors.Is(err, repositories.ErrCashupDepositNotFound) {
				w.Status = models.WithdrawalStatusRejected
				return OutcomeRejectedNoPool, nil
			}
			return "", err
		}
		if dep.CompoundingProfit.LessThan(w.Amount) {
			w.Status = models.WithdrawalStatusRejected
			return OutcomeRejectedInsufficientFunds, nil
		}
		prev := dep.ProfitFields
		dep.CompoundingProfit = dep.CompoundingProfit.Sub(w.Amount)
		dep.CompoundingWithdraw = dep.CompoundingWithdraw.Add(w.Amount)
		b.MainBalance = b.MainBalance.Add(w.Amount)
		if err := ledger.SaveCashupDeposit(ctx, tx, b, prev, dep, actorID); err != nil {
			return "", err
		}
		w.Status = models.WithdrawalStatusApproved
		return OutcomeApproved, nil
	}

	return "", errors.New("unknown withdrawal source")
}

func (s *service) Reject(ctx context.Context, withdrawalID uint, actorID uint) (*models.WithdrawalRequest, error) {
	var w *models.WithdrawalRequest
	err := s.repo.WithinTx(ctx, func(tx repositories.LedgerRepository) error {
		var err error
		w, err = tx.GetWithdrawalForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if w.Status.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		w.Status = models.WithdrawalStatusRejected
		return tx.SaveWithdrawal(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *service) List(ctx context.Context, buyerID uint, source models.WithdrawalSource) ([]models.WithdrawalRequest, error) {
	return s.repo.ListWithdrawalsByBuyer(ctx, buyerID, source)
}
