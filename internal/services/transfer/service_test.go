package transfer

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "cashup/internal/errors"
	"cashup/internal/models"
	"cashup/internal/repositories/memory"
	"cashup/internal/services/buyer"
)

func newBuyer(t *testing.T, repo *memory.Repository, balance int64) *models.Buyer {
	t.Helper()
	b, err := buyer.NewService(repo, nil).Create(context.Background(), buyer.CreateInput{
		Name:        "Asha",
		PhoneNumber: "01722222222",
	})
	require.NoError(t, err)
	if balance > 0 {
		_, err = buyer.NewService(repo, nil).Deposit(context.Background(), b.ID, decimal.NewFromInt(balance))
		require.NoError(t, err)
	}
	return b
}

func TestToCashup(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds and records a history row", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 200)
		svc := NewService(repo, nil)

		res, err := svc.ToCashup(ctx, b.ID, decimal.NewFromInt(120), 0)
		require.NoError(t, err)
		assert.Equal(t, "80", res.MainBalance.String())
		assert.Equal(t, "120", res.CashupBalance.String())

		// Membership flips on once the pool is funded.
		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, got.MembershipStatus)

		rows := repo.CashupTransferHistories()
		require.Len(t, rows, 1)
		assert.Equal(t, b.ID, rows[0].BuyerID)
		assert.Equal(t, "120", rows[0].Amount.String())
		assert.NotEmpty(t, rows[0].Reference)
	})

	t.Run("insufficient funds leaves everything untouched", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 50)
		svc := NewService(repo, nil)

		_, err := svc.ToCashup(ctx, b.ID, decimal.NewFromInt(51), 0)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		got, err := repo.GetBuyer(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "50", got.MainBalance.String())
		dep, err := repo.GetCashupDeposit(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "0", dep.CashupMainBalance.String())
		assert.Empty(t, repo.CashupTransferHistories())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		svc := NewService(memory.New(), nil)
		_, err := svc.ToCashup(ctx, 1, decimal.Zero, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("rejects unknown buyer", func(t *testing.T) {
		svc := NewService(memory.New(), nil)
		_, err := svc.ToCashup(ctx, 42, decimal.NewFromInt(10), 0)
		assert.ErrorIs(t, err, domain.ErrMissingBuyer)
	})
}

func TestToCashup_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	b := newBuyer(t, repo, 20)
	svc := NewService(repo, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToCashup(ctx, b.ID, decimal.NewFromInt(1), 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetBuyer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", got.MainBalance.String())
	dep, err := repo.GetCashupDeposit(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "20", dep.CashupMainBalance.String())
	assert.Len(t, repo.CashupTransferHistories(), 20)
}

func TestToCashup_ConcurrentOverdraw(t *testing.T) {
	// Two racing transfers of 100 against a balance of 150: exactly one
	// succeeds, the other sees insufficient funds.
	ctx := context.Background()
	repo := memory.New()
	b := newBuyer(t, repo, 150)
	svc := NewService(repo, nil)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.ToCashup(ctx, b.ID, decimal.NewFromInt(100), 0)
			errs <- err
		}()
	}

	var failed int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	got, err := repo.GetBuyer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "50", got.MainBalance.String())
	dep, err := repo.GetCashupDeposit(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", dep.CashupMainBalance.String())
}

func TestRequestOwingConversion(t *testing.T) {
	ctx := context.Background()

	t.Run("stages the amount without moving money", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 0)
		svc := NewService(repo, nil)

		requested, err := svc.RequestOwingConversion(ctx, b.ID, decimal.NewFromInt(60), 0)
		require.NoError(t, err)
		assert.Equal(t, "60", requested.String())

		dep, err := repo.GetOwingDeposit(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "60", dep.RequestedCashupOwingMainBalance.String())
		assert.Equal(t, "0", dep.CashupOwingMainBalance.String())

		rows := repo.TransferHistories()
		require.Len(t, rows, 1)
		assert.Equal(t, "60", rows[0].Amount.String())
		assert.False(t, rows[0].Verified)
	})

	t.Run("repeated requests accumulate", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 0)
		svc := NewService(repo, nil)

		_, err := svc.RequestOwingConversion(ctx, b.ID, decimal.NewFromInt(10), 0)
		require.NoError(t, err)
		requested, err := svc.RequestOwingConversion(ctx, b.ID, decimal.NewFromInt(15), 0)
		require.NoError(t, err)
		assert.Equal(t, "25", requested.String())
		assert.Len(t, repo.TransferHistories(), 2)
	})
}

func TestReconcileOwingRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("releases the staged amount and verifies histories", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 0)
		svc := NewService(repo, nil)

		_, err := svc.RequestOwingConversion(ctx, b.ID, decimal.NewFromInt(60), 0)
		require.NoError(t, err)
		dep, err := repo.GetOwingDeposit(ctx, b.ID)
		require.NoError(t, err)

		out, err := svc.ReconcileOwingRequest(ctx, dep.ID, 99)
		require.NoError(t, err)
		assert.Equal(t, "60", out.CashupOwingMainBalance.String())
		assert.Equal(t, "0", out.RequestedCashupOwingMainBalance.String())
		assert.Equal(t, uint(99), out.UpdatedByID)

		rows := repo.TransferHistories()
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Verified)
	})

	t.Run("nothing staged", func(t *testing.T) {
		repo := memory.New()
		b := newBuyer(t, repo, 0)
		svc := NewService(repo, nil)

		dep, err := repo.GetOwingDeposit(ctx, b.ID)
		require.NoError(t, err)
		_, err = svc.ReconcileOwingRequest(ctx, dep.ID, 0)
		assert.ErrorIs(t, err, domain.ErrNoPendingRequest)
	})

	t.Run("unknown deposit", func(t *testing.T) {
		svc := NewService(memory.New(), nil)
		_, err := svc.ReconcileOwingRequest(ctx, 42, 0)
		assert.ErrorIs(t, err, domain.ErrNoPoolFound)
	})
}
