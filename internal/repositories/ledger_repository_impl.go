package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "cashup/internal/errors"
	"cashup/internal/models"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository returns a gorm-backed ledger repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithinTx(ctx context.Context, fn func(LedgerRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
	return translateConflict(err)
}

// translateConflict maps serialization failures and deadlocks to the domain
// error the caller is expected to retry on, and unique violations to the
// duplicate-reference error.
func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return domain.ErrConcurrentModification
		case pgerrcode.UniqueViolation:
			return domain.ErrDuplicateReference
		}
	}
	return err
}

func (r *ledgerRepository) CreateBuyer(ctx context.Context, buyer *models.Buyer) error {
	if err := r.db.WithContext(ctx).Create(buyer).Error; err != nil {
		return fmt.Errorf("create buyer: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetBuyer(ctx context.Context, id uint) (*models.Buyer, error) {
	var buyer models.Buyer
	if err := r.db.WithContext(ctx).First(&buyer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuyerNotFound
		}
		return nil, fmt.Errorf("get buyer: %w", err)
	}
	return &buyer, nil
}

func (r *ledgerRepository) GetBuyerForUpdate(ctx context.Context, id uint) (*models.Buyer, error) {
	var buyer models.Buyer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&buyer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBuyerNotFound
		}
		return nil, fmt.Errorf("lock buyer: %w", err)
	}
	return &buyer, nil
}

func (r *ledgerRepository) SaveBuyer(ctx context.Context, buyer *models.Buyer) error {
	if err := r.db.WithContext(ctx).Save(buyer).Error; err != nil {
		return fmt.Errorf("save buyer: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetCashupDeposit(ctx context.Context, buyerID uint) (*models.CashupDeposit, error) {
	var dep models.CashupDeposit
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("id").
		First(&dep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCashupDepositNotFound
		}
		return nil, fmt.Errorf("get cashup deposit: %w", err)
	}
	return &dep, nil
}

func (r *ledgerRepository) GetCashupDepositForUpdate(ctx context.Context, buyerID uint) (*models.CashupDeposit, error) {
	var dep models.CashupDeposit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("buyer_id = ?", buyerID).
		Order("id").
		First(&dep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCashupDepositNotFound
		}
		return nil, fmt.Errorf("lock cashup deposit: %w", err)
	}
	return &dep, nil
}

func (r *ledgerRepository) CreateCashupDeposit(ctx context.Context, dep *models.CashupDeposit) error {
	if err := r.db.WithContext(ctx).Create(dep).Error; err != nil {
		return fmt.Errorf("create cashup deposit: %w", err)
	}
	return nil
}

func (r *ledgerRepository) SaveCashupDeposit(ctx context.Context, dep *models.CashupDeposit) error {
	if err := r.db.WithContext(ctx).Save(dep).Error; err != nil {
		return fmt.Errorf("save cashup deposit: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetOwingDeposit(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error) {
	var dep models.CashupOwingDeposit
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("id").
		First(&dep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwingDepositNotFound
		}
		return nil, fmt.Errorf("get owing deposit: %w", err)
	}
	return &dep, nil
}

func (r *ledgerRepository) GetOwingDepositForUpdate(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error) {
	var dep models.CashupOwingDeposit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("buyer_id = ?", buyerID).
		Order("id").
		First(&dep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwingDepositNotFound
		}
		return nil, fmt.Errorf("lock owing deposit: %w", err)
	}
	return &dep, nil
}

func (r *ledgerRepository) GetOwingDepositByIDForUpdate(ctx context.Context, id uint) (*models.CashupOwingDeposit, error) {
	var dep models.CashupOwingDeposit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&dep, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwingDepositNotFound
		}
		return nil, fmt.Errorf("lock owing deposit: %w", err)
	}
	return &dep, nil
}

func (r *ledgerRepository) CreateOwingDeposit(ctx context.Context, dep *models.CashupOwingDeposit) error {
	if err := r.db.WithContext(ctx).Create(dep).Error; err != nil {
		return fmt.Errorf("create owing deposit: %w", err)
	}
	return nil
}

func (r *ledgerRepository) SaveOwingDeposit(ctx context.Context, dep *models.CashupOwingDeposit) error {
	if err := r.db.WithContext(ctx).Save(dep).Error; err != nil {
		return fmt.Errorf("save owing deposit: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateCashupProfitHistory(ctx context.Context, row *models.CashupProfitHistory) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create cashup profit history: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateOwingProfitHistory(ctx context.Context, row *models.CashupOwingProfitHistory) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create owing profit history: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListCashupProfitHistory(ctx context.Context, depositID uint) ([]models.CashupProfitHistory, error) {
	var rows []models.CashupProfitHistory
	err := r.db.WithContext(ctx).
		Where("cashup_deposit_id = ?", depositID).
		Order("change_timestamp DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list cashup profit history: %w", err)
	}
	return rows, nil
}

func (r *ledgerRepository) ListOwingProfitHistory(ctx context.Context, depositID uint) ([]models.CashupOwingProfitHistory, error) {
	var rows []models.CashupOwingProfitHistory
	err := r.db.WithContext(ctx).
		Where("cashup_owing_deposit_id = ?", depositID).
		Order("change_timestamp DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list owing profit history: %w", err)
	}
	return rows, nil
}

func (r *ledgerRepository) CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetWithdrawalForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&w, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("lock withdrawal: %w", err)
	}
	return &w, nil
}

func (r *ledgerRepository) SaveWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	if err := r.db.WithContext(ctx).Save(w).Error; err != nil {
		return fmt.Errorf("save withdrawal: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListWithdrawalsByBuyer(ctx context.Context, buyerID uint, source models.WithdrawalSource) ([]models.WithdrawalRequest, error) {
	var rows []models.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND source = ?", buyerID, source).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return rows, nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *models.BuyerTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("create buyer transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetTransactionForUpdate(ctx context.Context, id uint) (*models.BuyerTransaction, error) {
	var tx models.BuyerTransaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tx, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("lock buyer transaction: %w", err)
	}
	return &tx, nil
}

func (r *ledgerRepository) SaveTransaction(ctx context.Context, tx *models.BuyerTransaction) error {
	if err := r.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("save buyer transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateTransferHistory(ctx context.Context, row *models.TransferHistory) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create transfer history: %w", err)
	}
	return nil
}

func (r *ledgerRepository) MarkTransferHistoriesVerified(ctx context.Context, owingDepositID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.TransferHistory{}).
		Where("cashup_owing_deposit_id = ?", owingDepositID).
		Update("verified", true).Error
	if err != nil {
		return fmt.Errorf("mark transfer histories verified: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateCashupTransferHistory(ctx context.Context, row *models.CashupTransferHistory) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create cashup transfer history: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

func (r *ledgerRepository) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetPurchaseForUpdate(ctx context.Context, id uint) (*models.Purchase, error) {
	var p models.Purchase
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("lock purchase: %w", err)
	}
	return &p, nil
}

func (r *ledgerRepository) SavePurchase(ctx context.Context, p *models.Purchase) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save purchase: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListPurchasesByBuyer(ctx context.Context, buyerID uint, confirmed bool) ([]models.Purchase, error) {
	var rows []models.Purchase
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND confirmed = ?", buyerID, confirmed).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return rows, nil
}
