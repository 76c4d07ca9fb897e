package persistence

import (
	"context"
	"errors"

	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/resto/backoffice/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceStore implements ledger.InvoiceStore against the
// purchase_invoices table
type GormInvoiceStore struct {
	db *gorm.DB
}

// NewGormInvoiceStore creates a new GormInvoiceStore
func NewGormInvoiceStore(db *gorm.DB) *GormInvoiceStore {
	return &GormInvoiceStore{db: db}
}

// OutstandingDue returns how much of the invoice remains unpaid
func (s *GormInvoiceStore) OutstandingDue(ctx context.Context, invoiceRef string) (decimal.Decimal, error) {
	var model models.PurchaseInvoiceModel
	if err := s.db.WithContext(ctx).Where("invoice_number = ?", invoiceRef).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, shared.NewDomainError("NOT_FOUND", "Invoice "+invoiceRef+" not found")
		}
		return decimal.Zero, err
	}
	return model.OutstandingDue(), nil
}

// ApplyPayment moves the invoice's paid total by amount. A negative
// amount undoes a payment (reversal). The update is guarded so the paid
// total can neither exceed the invoice total nor go negative.
func (s *GormInvoiceStore) ApplyPayment(ctx context.Context, invoiceRef string, amount decimal.Decimal) error {
	result := s.db.WithContext(ctx).
		Model(&models.PurchaseInvoiceModel{}).
		Where("invoice_number = ?", invoiceRef).
		Where("paid_amount + ? >= 0 AND paid_amount + ? <= total_amount", amount, amount).
		Update("paid_amount", gorm.Expr("paid_amount + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OVERPAYMENT_REJECTED", "Payment would not fit the outstanding due on invoice "+invoiceRef)
	}
	return nil
}

// Ensure GormInvoiceStore implements InvoiceStore
var _ ledger.InvoiceStore = (*GormInvoiceStore)(nil)
