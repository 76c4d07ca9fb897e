package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/resto/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository using
// GORM. The log is append-only: there is deliberately no update or
// delete method.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create appends a transaction to the log
func (r *GormTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	model := models.TransactionModelFromDomain(tx)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a transaction by ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Transaction not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists transactions matching the filter, newest first
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	var txModels []models.TransactionModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.TransactionModel{})
	query = r.applyFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	query = query.Order("occurred_at DESC, recorded_at DESC")

	if err := query.Find(&txModels).Error; err != nil {
		return nil, 0, err
	}

	txs := make([]*ledger.Transaction, len(txModels))
	for i := range txModels {
		txs[i] = txModels[i].ToDomain()
	}
	return txs, total, nil
}

// FindByAccount returns every transaction touching the account in the
// range, oldest first, including transfers where the account is the
// counter side. A nil bound leaves that end of the range open.
func (r *GormTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*ledger.Transaction, error) {
	var txModels []models.TransactionModel

	query := r.db.WithContext(ctx).
		Where("account_id = ? OR counter_account_id = ?", accountID, accountID)
	if from != nil {
		query = query.Where("occurred_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("occurred_at <= ?", *to)
	}

	if err := query.Order("occurred_at ASC, recorded_at ASC").Find(&txModels).Error; err != nil {
		return nil, err
	}

	txs := make([]*ledger.Transaction, len(txModels))
	for i := range txModels {
		txs[i] = txModels[i].ToDomain()
	}
	return txs, nil
}

// CountByAccount counts transactions touching the account on either side
func (r *GormTransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("account_id = ? OR counter_account_id = ?", accountID, accountID).
		Count(&count).Error
	return count, err
}

// FindReversalOf returns the transaction that reversed the given one,
// or nil if it has not been reversed
func (r *GormTransactionRepository) FindReversalOf(ctx context.Context, originalID uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).Where("reversal_of = ?", originalID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// applyFilter applies filter options to the query
func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter ledger.TransactionFilter) *gorm.DB {
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.OccurredFrom != nil {
		query = query.Where("occurred_at >= ?", *filter.OccurredFrom)
	}
	if filter.OccurredTo != nil {
		query = query.Where("occurred_at <= ?", *filter.OccurredTo)
	}
	if filter.Search != "" {
		query = query.Where("note ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
