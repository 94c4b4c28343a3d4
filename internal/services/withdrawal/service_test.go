package withdrawal

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "cashup/internal/errors"
	"cashup/internal/models"
	"cashup/internal/repositories/memory"
	"cashup/internal/services/buyer"
	"cashup/internal/services/transfer"
)

func newBuyer(t *testing.T, repo *memory.Repository, mainBalance int64) *models.Buyer {
	t.Helper()
	ctx := context.Background()
	svc := buyer.NewService(repo, nil)
	b, err := svc.Create(ctx, buyer.CreateInput{Name: "Asha", PhoneNumber: "01733333333"})
	require.NoError(t, err)
	if mainBalance > 0 {
		_, err = svc.Deposit(ctx, b.ID, decimal.NewFromInt(mainBalance))
		require.NoError(t, err)
	}
	return b
}

func TestRequest(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	b := newBuyer(t, repo, 0)
	svc := NewService(repo, nil)

	t.Run("creates a pending request without reserving funds", func(t *testing.T) {
		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceMainBalance, decimal.NewFromInt(150))
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusPending, w.Status)
		assert.Equal(t, "150", w.Amount.String())

		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "0", got.MainBalance.String())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := svc.Request(ctx, b.ID, models.WithdrawalSourceMainBalance, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = svc.Request(ctx, b.ID, models.WithdrawalSource("savings"), decimal.NewFromInt(10))
		assert.Error(t, err)
		_, err = svc.Request(ctx, 42, models.WithdrawalSourceMainBalance, decimal.NewFromInt(10))
		assert.ErrorIs(t, err, domain.ErrMissingBuyer)
	})
}

func TestApprove_MainBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("debits the main balance", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 200)
		svc := NewService(repo, nil)

		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceMainBalance, decimal.NewFromInt(150))
		require.NoError(t, err)

		w, outcome, err := svc.Approve(ctx, w.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApproved, outcome)
		assert.Equal(t, models.WithdrawalStatusApproved, w.Status)

		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "50", got.MainBalance.String())
	})

	t.Run("insufficient balance forces rejection, funds untouched", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 150)
		svc := NewService(repo, nil)

		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceMainBalance, decimal.NewFromInt(200))
		require.NoError(t, err)

		w, outcome, err := svc.Approve(ctx, w.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, OutcomeRejectedInsufficientFunds, outcome)
		assert.Equal(t, models.WithdrawalStatusRejected, w.Status)

		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "150", got.MainBalance.String())
	})

	t.Run("a finalized request cannot be approved again", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 200)
		svc := NewService(repo, nil)

		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceMainBalance, decimal.NewFromInt(100))
		require.NoError(t, err)
		_, _, err = svc.Approve(ctx, w.ID, 99)
		require.NoError(t, err)

		_, _, err = svc.Approve(ctx, w.ID, 99)
		assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)

		// Single debit only.
		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "100", got.MainBalance.String())
	})
}

func TestApprove_CashupBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds back to main and tracks the withdraw total", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 200)
		_, err := transfer.NewService(repo, nil).ToCashup(ctx, b.ID, decimal.NewFromInt(120), 0)
		require.NoError(t, err)
		svc := NewService(repo, nil)

		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceCashupBalance, decimal.NewFromInt(120))
		require.NoError(t, err)
		_, outcome, err := svc.Approve(ctx, w.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApproved, outcome)

		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "200", got.MainBalance.String())
		// Pool drained, so membership drops.
		assert.False(t, got.MembershipStatus)

		dep, err := repo.GetCashupDeposit(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "0", dep.CashupMainBalance.String())
		assert.Equal(t, "120", dep.Withdraw.String())
	})

	t.Run("insufficient pool balance forces rejection, pool untouched", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 150)
		_, err := transfer.NewService(repo, nil).ToCashup(ctx, b.ID, decimal.NewFromInt(150), 0)
		require.NoError(t, err)
		svc := NewService(repo, nil)

		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceCashupBalance, decimal.NewFromInt(200))
		require.NoError(t, err)
		w, outcome, err := svc.Approve(ctx, w.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, OutcomeRejectedInsufficientFunds, outcome)
		assert.Equal(t, models.WithdrawalStatusRejected, w.Status)

		dep, err := repo.GetCashupDeposit(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "150", dep.CashupMainBalance.String())
		assert.Equal(t, "0", dep.Withdraw.String())
		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "0", got.MainBalance.String())
		assert.True(t, got.MembershipStatus)
	})

	t.Run("missing pool forces rejection", func(t *testing.T) {
		repo := memory.New()
		// Bare buyer with no pools.
		b := &models.Buyer{Name: "Solo", PhoneNumber: "01744444444", MainBalance: decimal.Zero}
		require.NoError(t, repo.CreateBuyer(ctx, b))
		svc := NewService(repo, nil)

		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceCashupBalance, decimal.NewFromInt(10))
		require.NoError(t, err)
		w, outcome, err := svc.Approve(ctx, w.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, OutcomeRejectedNoPool, outcome)
		assert.Equal(t, models.WithdrawalStatusRejected, w.Status)
	})
}

func TestApprove_CompoundingProfit(t *testing.T) {
	ctx := context.Background()

	// Accrue compounding profit directly on the pool.
	seed := func(t *testing.T, repo *memory.Repository, b *models.Buyer, profit int64) {
		t.Helper()
		dep, err := repo.GetCashupDeposit(ctx, b.ID)
		require.NoError(t, err)
		dep.CompoundingProfit = decimal.NewFromInt(profit)
		require.NoError(t, repo.SaveCashupDeposit(ctx, dep))
	}

	t.Run("moves profit to main and tracks the withdraw total", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 0)
		seed(t, repo, b, 75)

		svc := NewService(repo, nil)
		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceCompoundingProfit, decimal.NewFromInt(50))
		require.NoError(t, err)
		_, outcome, err := svc.Approve(ctx, w.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApproved, outcome)

		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "50", got.MainBalance.String())

		dep, err := repo.GetCashupDeposit(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "25", dep.CompoundingProfit.String())
		assert.Equal(t, "50", dep.CompoundingWithdraw.String())

		// The profit drawdown itself is audited.
		rows, err := repo.ListCashupProfitHistory(ctx, dep.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, models.FieldCompoundingProfit, rows[0].FieldName)
		assert.Equal(t, "75", rows[0].PreviousValue.String())
		assert.Equal(t, "25", rows[0].NewValue.String())
		assert.Equal(t, uint(99), rows[0].UpdatedByID)
	})

	t.Run("insufficient profit forces rejection, pool untouched", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 0)
		seed(t, repo, b, 150)

		svc := NewService(repo, nil)
		w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceCompoundingProfit, decimal.NewFromInt(200))
		require.NoError(t, err)
		w, outcome, err := svc.Approve(ctx, w.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, OutcomeRejectedInsufficientFunds, outcome)
		assert.Equal(t, models.WithdrawalStatusRejected, w.Status)

		dep, err := repo.GetCashupDeposit(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "150", dep.CompoundingProfit.String())
		assert.Equal(t, "0", dep.CompoundingWithdraw.String())
		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "0", got.MainBalance.String())

		rows, err := repo.ListCashupProfitHistory(ctx, dep.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	b := newBuyer(t, repo, 100)
	svc := NewService(repo, nil)

	w, err := svc.Request(ctx, b.ID, models.WithdrawalSourceMainBalance, decimal.NewFromInt(50))
	require.NoError(t, err)

	w, err = svc.Reject(ctx, w.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, w.Status)

	_, err = svc.Reject(ctx, w.ID, 99)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	got, err := repo.GetBuyer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", got.MainBalance.String())
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	b := newBuyer(t, repo, 0)
	svc := NewService(repo, nil)

	_, err := svc.Request(ctx, b.ID, models.WithdrawalSourceMainBalance, decimal.NewFromInt(10))
	require.NoError(t, err)
	_, err = svc.Request(ctx, b.ID, models.WithdrawalSourceCashupBalance, decimal.NewFromInt(20))
	require.NoError(t, err)

	rows, err := svc.List(ctx, b.ID, models.WithdrawalSourceMainBalance)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10", rows[0].Amount.String())
}
