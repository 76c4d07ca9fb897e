package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/resto/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Create creates a new account
func (r *GormAccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds an account by ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an account by its unique account number
func (r *GormAccountRepository) FindByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists accounts matching the filter with pagination
func (r *GormAccountRepository) FindAll(ctx context.Context, filter ledger.AccountFilter) ([]*ledger.Account, int64, error) {
	var accountModels []models.AccountModel
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AccountModel{})
	query = r.applyFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, AccountSortFields, "number")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if err := query.Find(&accountModels).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]*ledger.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToDomain()
	}
	return accounts, total, nil
}

// Save updates an account without a version check. Reserved for the
// engine's freeze path where the write must land even after a conflict.
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormAccountRepository) SaveWithLock(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	result := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]interface{}{
			"name":            model.Name,
			"number":          model.Number,
			"note":            model.Note,
			"balance":         model.Balance,
			"credit":          model.Credit,
			"debit":           model.Debit,
			"allow_overdraft": model.AllowOverdraft,
			"status":          model.Status,
			"updated_by":      model.UpdatedBy,
			"updated_at":      model.UpdatedAt,
			"version":         model.Version,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "Account was modified concurrently")
	}
	return nil
}

// Delete removes an account. The caller is responsible for checking
// that the account has no transaction history.
func (r *GormAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AccountModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter ledger.AccountFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR number ILIKE ?", pattern, pattern)
	}
	return query
}

// Ensure GormAccountRepository implements AccountRepository
var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
