package repositories

import (
	"context"
	"errors"

	"cashup/internal/models"
)

// Not-found sentinels returned by the ledger repository.
var (
	ErrBuyerNotFound         = errors.New("buyer not found")
	ErrCashupDepositNotFound = errors.New("cashup deposit not found")
	ErrOwingDepositNotFound  = errors.New("cashup owing deposit not found")
	ErrWithdrawalNotFound    = errors.New("withdrawal request not found")
	ErrTransactionNotFound   = errors.New("buyer transaction not found")
	ErrItemNotFound          = errors.New("item not found")
	ErrPurchaseNotFound      = errors.New("purchase not found")
)

// LedgerRepository is the entity store for every balance pool and its audit
// rows. The ForUpdate variants lock the row for the duration of the enclosing
// transaction; callers that read-then-write a balance must use them inside
// WithinTx so concurrent operations against the same buyer serialize.
type LedgerRepository interface {
	// WithinTx runs fn against a repository bound to a single database
	// transaction. Everything fn writes commits or rolls back as one unit.
	WithinTx(ctx context.Context, fn func(LedgerRepository) error) error

	CreateBuyer(ctx context.Context, buyer *models.Buyer) error
	GetBuyer(ctx context.Context, id uint) (*models.Buyer, error)
	GetBuyerForUpdate(ctx context.Context, id uint) (*models.Buyer, error)
	SaveBuyer(ctx context.Context, buyer *models.Buyer) error

	// Deposit pools. Schema allows several rows per buyer; lookups return the
	// first by creation order, matching how the pools are used in practice.
	GetCashupDeposit(ctx context.Context, buyerID uint) (*models.CashupDeposit, error)
	GetCashupDepositForUpdate(ctx context.Context, buyerID uint) (*models.CashupDeposit, error)
	CreateCashupDeposit(ctx context.Context, dep *models.CashupDeposit) error
	SaveCashupDeposit(ctx context.Context, dep *models.CashupDeposit) error

	GetOwingDeposit(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error)
	GetOwingDepositForUpdate(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error)
	GetOwingDepositByIDForUpdate(ctx context.Context, id uint) (*models.CashupOwingDeposit, error)
	CreateOwingDeposit(ctx context.Context, dep *models.CashupOwingDeposit) error
	SaveOwingDeposit(ctx context.Context, dep *models.CashupOwingDeposit) error

	// Audit rows are append-only.
	CreateCashupProfitHistory(ctx context.Context, row *models.CashupProfitHistory) error
	CreateOwingProfitHistory(ctx context.Context, row *models.CashupOwingProfitHistory) error
	ListCashupProfitHistory(ctx context.Context, depositID uint) ([]models.CashupProfitHistory, error)
	ListOwingProfitHistory(ctx context.Context, depositID uint) ([]models.CashupOwingProfitHistory, error)

	CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error
	GetWithdrawalForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error)
	SaveWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error
	ListWithdrawalsByBuyer(ctx context.Context, buyerID uint, source models.WithdrawalSource) ([]models.WithdrawalRequest, error)

	CreateTransaction(ctx context.Context, tx *models.BuyerTransaction) error
	GetTransactionForUpdate(ctx context.Context, id uint) (*models.BuyerTransaction, error)
	SaveTransaction(ctx context.Context, tx *models.BuyerTransaction) error

	CreateTransferHistory(ctx context.Context, row *models.TransferHistory) error
	MarkTransferHistoriesVerified(ctx context.Context, owingDepositID uint) error
	CreateCashupTransferHistory(ctx context.Context, row *models.CashupTransferHistory) error

	GetItem(ctx context.Context, id uint) (*models.Item, error)
	CreatePurchase(ctx context.Context, p *models.Purchase) error
	GetPurchaseForUpdate(ctx context.Context, id uint) (*models.Purchase, error)
	SavePurchase(ctx context.Context, p *models.Purchase) error
	ListPurchasesByBuyer(ctx context.Context, buyerID uint, confirmed bool) ([]models.Purchase, error)
}
