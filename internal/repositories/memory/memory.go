// Package memory provides an in-memory LedgerRepository used by service
// tests. It mirrors the gorm implementation's observable behavior: not-found
// sentinels, unique-reference violations, and per-buyer first-by-id deposit
// lookups. WithinTx serializes callers with a mutex instead of a database
// transaction, so row locking is a no-op and rollback is not simulated.
package memory

import (
	"context"
	"sync"

	domain "cashup/internal/errors"
	"cashup/internal/models"
	"cashup/internal/repositories"
)

type tables struct {
	nextID uint

	buyers            map[uint]models.Buyer
	cashupDeposits    map[uint]models.CashupDeposit
	owingDeposits     map[uint]models.CashupOwingDeposit
	withdrawals       map[uint]models.WithdrawalRequest
	transactions      map[uint]models.BuyerTransaction
	items             map[uint]models.Item
	purchases         map[uint]models.Purchase
	cashupHistories   []models.CashupProfitHistory
	owingHistories    []models.CashupOwingProfitHistory
	transferHistories []models.TransferHistory
	cashupTransfers   []models.CashupTransferHistory
}

type Repository struct {
	mu   *sync.Mutex
	inTx bool
	t    *tables
}

func New() *Repository {
	return &Repository{
		mu: &sync.Mutex{},
		t: &tables{
			buyers:         make(map[uint]models.Buyer),
			cashupDeposits: make(map[uint]models.CashupDeposit),
			owingDeposits:  make(map[uint]models.CashupOwingDeposit),
			withdrawals:    make(map[uint]models.WithdrawalRequest),
			transactions:   make(map[uint]models.BuyerTransaction),
			items:          make(map[uint]models.Item),
			purchases:      make(map[uint]models.Purchase),
		},
	}
}

var _ repositories.LedgerRepository = (*Repository)(nil)

func (r *Repository) WithinTx(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&Repository{mu: r.mu, inTx: true, t: r.t})
}

func (r *Repository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (t *tables) id() uint {
	t.nextID++
	return t.nextID
}

// SeedItem inserts a catalog item directly, for test setup.
func (r *Repository) SeedItem(item models.Item) uint {
	defer r.lock()()
	if item.ID == 0 {
		item.ID = r.t.id()
	}
	r.t.items[item.ID] = item
	return item.ID
}

// TransferHistories returns a copy of the staged-transfer audit rows.
func (r *Repository) TransferHistories() []models.TransferHistory {
	defer r.lock()()
	out := make([]models.TransferHistory, len(r.t.transferHistories))
	copy(out, r.t.transferHistories)
	return out
}

// CashupTransferHistories returns a copy of the main->cashup audit rows.
func (r *Repository) CashupTransferHistories() []models.CashupTransferHistory {
	defer r.lock()()
	out := make([]models.CashupTransferHistory, len(r.t.cashupTransfers))
	copy(out, r.t.cashupTransfers)
	return out
}

func (r *Repository) CreateBuyer(ctx context.Context, buyer *models.Buyer) error {
	defer r.lock()()
	for _, b := range r.t.buyers {
		if b.PhoneNumber == buyer.PhoneNumber {
			return domain.ErrDuplicateReference
		}
	}
	if buyer.Username == "" {
		buyer.Username = buyer.PhoneNumber
	}
	buyer.ID = r.t.id()
	r.t.buyers[buyer.ID] = *buyer
	return nil
}

func (r *Repository) GetBuyer(ctx context.Context, id uint) (*models.Buyer, error) {
	defer r.lock()()
	b, ok := r.t.buyers[id]
	if !ok {
		return nil, repositories.ErrBuyerNotFound
	}
	return &b, nil
}

func (r *Repository) GetBuyerForUpdate(ctx context.Context, id uint) (*models.Buyer, error) {
	return r.GetBuyer(ctx, id)
}

func (r *Repository) SaveBuyer(ctx context.Context, buyer *models.Buyer) error {
	defer r.lock()()
	r.t.buyers[buyer.ID] = *buyer
	return nil
}

func (r *Repository) GetCashupDeposit(ctx context.Context, buyerID uint) (*models.CashupDeposit, error) {
	defer r.lock()()
	var found *models.CashupDeposit
	for _, dep := range r.t.cashupDeposits {
		if dep.BuyerID == buyerID && (found == nil || dep.ID < found.ID) {
			d := dep
			found = &d
		}
	}
	if found == nil {
		return nil, repositories.ErrCashupDepositNotFound
	}
	return found, nil
}

func (r *Repository) GetCashupDepositForUpdate(ctx context.Context, buyerID uint) (*models.CashupDeposit, error) {
	return r.GetCashupDeposit(ctx, buyerID)
}

func (r *Repository) CreateCashupDeposit(ctx context.Context, dep *models.CashupDeposit) error {
	defer r.lock()()
	dep.ID = r.t.id()
	r.t.cashupDeposits[dep.ID] = *dep
	return nil
}

func (r *Repository) SaveCashupDeposit(ctx context.Context, dep *models.CashupDeposit) error {
	defer r.lock()()
	r.t.cashupDeposits[dep.ID] = *dep
	return nil
}

func (r *Repository) GetOwingDeposit(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error) {
	defer r.lock()()
	var found *models.CashupOwingDeposit
	for _, dep := range r.t.owingDeposits {
		if dep.BuyerID == buyerID && (found == nil || dep.ID < found.ID) {
			d := dep
			found = &d
		}
	}
	if found == nil {
		return nil, repositories.ErrOwingDepositNotFound
	}
	return found, nil
}

func (r *Repository) GetOwingDepositForUpdate(ctx context.Context, buyerID uint) (*models.CashupOwingDeposit, error) {
	return r.GetOwingDeposit(ctx, buyerID)
}

func (r *Repository) GetOwingDepositByIDForUpdate(ctx context.Context, id uint) (*models.CashupOwingDeposit, error) {
	defer r.lock()()
	dep, ok := r.t.owingDeposits[id]
	if !ok {
		return nil, repositories.ErrOwingDepositNotFound
	}
	return &dep, nil
}

func (r *Repository) CreateOwingDeposit(ctx context.Context, dep *models.CashupOwingDeposit) error {
	defer r.lock()()
	dep.ID = r.t.id()
	r.t.owingDeposits[dep.ID] = *dep
	return nil
}

func (r *Repository) SaveOwingDeposit(ctx context.Context, dep *models.CashupOwingDeposit) error {
	defer r.lock()()
	r.t.owingDeposits[dep.ID] = *dep
	return nil
}

func (r *Repository) CreateCashupProfitHistory(ctx context.Context, row *models.CashupProfitHistory) error {
	defer r.lock()()
	row.ID = r.t.id()
	r.t.cashupHistories = append(r.t.cashupHistories, *row)
	return nil
}

func (r *Repository) CreateOwingProfitHistory(ctx context.Context, row *models.CashupOwingProfitHistory) error {
	defer r.lock()()
	row.ID = r.t.id()
	r.t.owingHistories = append(r.t.owingHistories, *row)
	return nil
}

func (r *Repository) ListCashupProfitHistory(ctx context.Context, depositID uint) ([]models.CashupProfitHistory, error) {
	defer r.lock()()
	var out []models.CashupProfitHistory
	for _, row := range r.t.cashupHistories {
		if row.CashupDepositID == depositID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *Repository) ListOwingProfitHistory(ctx context.Context, depositID uint) ([]models.CashupOwingProfitHistory, error) {
	defer r.lock()()
	var out []models.CashupOwingProfitHistory
	for _, row := range r.t.owingHistories {
		if row.CashupOwingDepositID == depositID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *Repository) CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	defer r.lock()()
	w.ID = r.t.id()
	r.t.withdrawals[w.ID] = *w
	return nil
}

func (r *Repository) GetWithdrawalForUpdate(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	defer r.lock()()
	w, ok := r.t.withdrawals[id]
	if !ok {
		return nil, repositories.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (r *Repository) SaveWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	defer r.lock()()
	r.t.withdrawals[w.ID] = *w
	return nil
}

func (r *Repository) ListWithdrawalsByBuyer(ctx context.Context, buyerID uint, source models.WithdrawalSource) ([]models.WithdrawalRequest, error) {
	defer r.lock()()
	var out []models.WithdrawalRequest
	for _, w := range r.t.withdrawals {
		if w.BuyerID == buyerID && w.Source == source {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *models.BuyerTransaction) error {
	defer r.lock()()
	for _, t := range r.t.transactions {
		if t.TransactionID == tx.TransactionID {
			return domain.ErrDuplicateReference
		}
	}
	tx.ID = r.t.id()
	r.t.transactions[tx.ID] = *tx
	return nil
}

func (r *Repository) GetTransactionForUpdate(ctx context.Context, id uint) (*models.BuyerTransaction, error) {
	defer r.lock()()
	tx, ok := r.t.transactions[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	return &tx, nil
}

func (r *Repository) SaveTransaction(ctx context.Context, tx *models.BuyerTransaction) error {
	defer r.lock()()
	r.t.transactions[tx.ID] = *tx
	return nil
}

func (r *Repository) CreateTransferHistory(ctx context.Context, row *models.TransferHistory) error {
	defer r.lock()()
	for _, h := range r.t.transferHistories {
		if h.Reference == row.Reference {
			return domain.ErrDuplicateReference
		}
	}
	row.ID = r.t.id()
	r.t.transferHistories = append(r.t.transferHistories, *row)
	return nil
}

func (r *Repository) MarkTransferHistoriesVerified(ctx context.Context, owingDepositID uint) error {
	defer r.lock()()
	for i := range r.t.transferHistories {
		if r.t.transferHistories[i].CashupOwingDepositID == owingDepositID {
			r.t.transferHistories[i].Verified = true
		}
	}
	return nil
}

func (r *Repository) CreateCashupTransferHistory(ctx context.Context, row *models.CashupTransferHistory) error {
	defer r.lock()()
	row.ID = r.t.id()
	r.t.cashupTransfers = append(r.t.cashupTransfers, *row)
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	defer r.lock()()
	item, ok := r.t.items[id]
	if !ok {
		return nil, repositories.ErrItemNotFound
	}
	return &item, nil
}

func (r *Repository) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	defer r.lock()()
	p.ID = r.t.id()
	r.t.purchases[p.ID] = *p
	return nil
}

func (r *Repository) GetPurchaseForUpdate(ctx context.Context, id uint) (*models.Purchase, error) {
	defer r.lock()()
	p, ok := r.t.purchases[id]
	if !ok {
		return nil, repositories.ErrPurchaseNotFound
	}
	return &p, nil
}

func (r *Repository) SavePurchase(ctx context.Context, p *models.Purchase) error {
	defer r.lock()()
	r.t.purchases[p.ID] = *p
	return nil
}

func (r *Repository) ListPurchasesByBuyer(ctx context.Context, buyerID uint, confirmed bool) ([]models.Purchase, error) {
	defer r.lock()()
	var out []models.Purchase
	for _, p := range r.t.purchases {
		if p.BuyerID == buyerID && p.Confirmed == confirmed {
			out = append(out, p)
		}
	}
	return out, nil
}
