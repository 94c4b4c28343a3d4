package reconcile

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
)

// seed creates a buyer whose owing pool carries the given dps and owing main
// balances.
func seed(t *testing.T, repo *memory.Repository, dps, owing int64) *models.Buyer {
	t.Helper()
	ctx := context.Background()
	b, err := buyer.NewService(repo, nil).Create(ctx, buyer.CreateInput{
		Name:        "Asha",
		PhoneNumber: "01755555555",
	})
	require.NoError(t, err)

	dep, err := repo.GetOwingDeposit(ctx, b.ID)
	require.NoError(t, err)
	dep.CashupOwingDPS = decimal.NewFromInt(dps)
	dep.CashupOwingMainBalance = decimal.NewFromInt(owing)
	require.NoError(t, repo.SaveOwingDeposit(ctx, dep))
	return b
}

// totalValue sums every pool a reconciliation can touch.
func totalValue(t *testing.T, repo *memory.Repository, buyerID uint) decimal.Decimal {
	t.Helper()
	ctx := context.Background()
	b, err := repo.GetBuyer(ctx, buyerID)
	require.NoError(t, err)
	cashup, err := repo.GetCashupDeposit(ctx, buyerID)
	require.NoError(t, err)
	owing, err := repo.GetOwingDeposit(ctx, buyerID)
	require.NoError(t, err)
	return b.MainBalance.
		Add(cashup.CashupMainBalance).
		Add(owing.CashupOwingMainBalance).
		Add(owing.CashupOwingDPS)
}

func record(t *testing.T, svc Service, buyerID uint, txID string, amount int64) *models.BuyerTransaction {
	t.Helper()
	tx, err := svc.Create(context.Background(), CreateInput{
		BuyerID:       buyerID,
		TransactionID: txID,
		PhoneNumber:   "01755555555",
		Amount:        decimal.NewFromInt(amount),
		Method:        models.MethodBkash,
	})
	require.NoError(t, err)
	return tx
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	b := seed(t, repo, 0, 0)
	svc := NewService(repo, nil)

	t.Run("records an unverified transaction", func(t *testing.T) {
		tx := record(t, svc, b.ID, "TX-1", 100)
		assert.False(t, tx.Verified)
		assert.False(t, tx.Reconciled)
	})

	t.Run("duplicate gateway reference is refused", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{
			BuyerID:       b.ID,
			TransactionID: "TX-1",
			PhoneNumber:   "01755555555",
			Amount:        decimal.NewFromInt(5),
			Method:        models.MethodNagad,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{BuyerID: b.ID, TransactionID: "TX-2", Amount: decimal.Zero, Method: models.MethodBkash})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = svc.Create(ctx, CreateInput{BuyerID: b.ID, TransactionID: "TX-2", Amount: decimal.NewFromInt(5), Method: "PayPal"})
		assert.Error(t, err)
		_, err = svc.Create(ctx, CreateInput{BuyerID: 42, TransactionID: "TX-2", Amount: decimal.NewFromInt(5), Method: models.MethodBkash})
		assert.ErrorIs(t, err, domain.ErrMissingBuyer)
	})
}

func TestVerify_Waterfall(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		dps        int64
		owing      int64
		amount     int64
		wantDPS    string
		wantOwing  string
		wantCashup string
		wantMain   string
	}{
		{
			name: "no dps goes straight to main",
			dps:  0, owing: 50, amount: 100,
			wantDPS: "0", wantOwing: "50", wantCashup: "0", wantMain: "100",
		},
		{
			name: "amount within dps",
			dps:  100, owing: 0, amount: 40,
			wantDPS: "60", wantOwing: "0", wantCashup: "40", wantMain: "0",
		},
		{
			name: "amount exactly dps",
			dps:  40, owing: 10, amount: 40,
			wantDPS: "0", wantOwing: "10", wantCashup: "40", wantMain: "0",
		},
		{
			name: "overflow consumed by owing balance",
			dps:  30, owing: 50, amount: 60,
			wantDPS: "0", wantOwing: "20", wantCashup: "30", wantMain: "30",
		},
		{
			name: "overflow beyond owing lands on main",
			dps:  30, owing: 50, amount: 100,
			wantDPS: "0", wantOwing: "0", wantCashup: "30", wantMain: "20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.New()
			b := seed(t, repo, tt.dps, tt.owing)
			svc := NewService(repo, nil)

			tx := record(t, svc, b.ID, "TX-1", tt.amount)
			out, err := svc.Verify(ctx, tx.ID, 99)
			require.NoError(t, err)
			assert.True(t, out.Verified)
			assert.True(t, out.Reconciled)

			owing, err := repo.GetOwingDeposit(ctx, b.ID)
			require.NoError(t, err)
			cashup, err := repo.GetCashupDeposit(ctx, b.ID)
			require.NoError(t, err)
			buyerRow, err := repo.GetBuyer(ctx, b.ID)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDPS, owing.CashupOwingDPS.String())
			assert.Equal(t, tt.wantOwing, owing.CashupOwingMainBalance.String())
			assert.Equal(t, tt.wantCashup, cashup.CashupMainBalance.String())
			assert.Equal(t, tt.wantMain, buyerRow.MainBalance.String())
		})
	}
}

func TestVerify_PreservesTotalValue(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	b := seed(t, repo, 30, 50)
	svc := NewService(repo, nil)

	before := totalValue(t, repo, b.ID)
	tx := record(t, svc, b.ID, "TX-1", 100)
	_, err := svc.Verify(ctx, tx.ID, 0)
	require.NoError(t, err)

	after := totalValue(t, repo, b.ID)
	assert.True(t, after.Sub(before).Equal(decimal.NewFromInt(100)),
		"pools must grow by exactly the reconciled amount, got %s -> %s", before, after)
}

func TestVerify_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	b := seed(t, repo, 0, 0)
	svc := NewService(repo, nil)

	tx := record(t, svc, b.ID, "TX-1", 100)
	_, err := svc.Verify(ctx, tx.ID, 0)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, tx.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadyReconciled)

	got, err := repo.GetBuyer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", got.MainBalance.String())
}

func TestVerify_CreatesMissingPools(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	// Bare buyer with no pools at all.
	b := &models.Buyer{Name: "Solo", PhoneNumber: "01766666666", MainBalance: decimal.Zero}
	require.NoError(t, repo.CreateBuyer(ctx, b))
	svc := NewService(repo, nil)

	tx := record(t, svc, b.ID, "TX-1", 100)
	_, err := svc.Verify(ctx, tx.ID, 0)
	require.NoError(t, err)

	// Pools were created on the fly and the amount landed on main.
	_, err = repo.GetCashupDeposit(ctx, b.ID)
	require.NoError(t, err)
	_, err = repo.GetOwingDeposit(ctx, b.ID)
	require.NoError(t, err)
	got, err := repo.GetBuyer(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", got.MainBalance.String())
}

func TestVerify_UnknownTransaction(t *testing.T) {
	svc := NewService(memory.New(), nil)
	_, err := svc.Verify(context.Background(), 42, 0)
	assert.Error(t, err)
}
