package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root.
type AccountModel struct {
	AggregateModel
	Name           string               `gorm:"type:varchar(200);not null"`
	Number         string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Note           string               `gorm:"type:text"`
	OpeningBalance decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Balance        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Credit         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Debit          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	AllowOverdraft bool                 `gorm:"not null;default:false"`
	Status         ledger.AccountStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	UpdatedBy      string               `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "ledger_accounts"
}

// ToDomain converts the persistence model to a domain Account entity.
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Name:           m.Name,
		Number:         m.Number,
		Note:           m.Note,
		OpeningBalance: m.OpeningBalance,
		Balance:        m.Balance,
		Credit:         m.Credit,
		Debit:          m.Debit,
		AllowOverdraft: m.AllowOverdraft,
		Status:         m.Status,
		UpdatedBy:      m.UpdatedBy,
	}
}

// FromDomain populates the persistence model from a domain Account entity.
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Name = a.Name
	m.Number = a.Number
	m.Note = a.Note
	m.OpeningBalance = a.OpeningBalance
	m.Balance = a.Balance
	m.Credit = a.Credit
	m.Debit = a.Debit
	m.AllowOverdraft = a.AllowOverdraft
	m.Status = a.Status
	m.UpdatedBy = a.UpdatedBy
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// TransactionModel is the persistence model for the immutable transaction
// log. Rows are only ever inserted.
type TransactionModel struct {
	BaseModel
	Kind             ledger.TransactionKind `gorm:"type:varchar(30);not null;index"`
	AccountID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	CounterAccountID *uuid.UUID             `gorm:"type:uuid;index"`
	Amount           decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	OccurredAt       time.Time              `gorm:"not null;index"`
	RecordedAt       time.Time              `gorm:"not null"`
	RecordedBy       string                 `gorm:"type:varchar(100);not null"`
	Note             string                 `gorm:"type:text"`
	InvoiceRef       string                 `gorm:"type:varchar(50);index"`
	OrderRef         string                 `gorm:"type:varchar(50);index"`
	BalanceBefore    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	BalanceAfter     decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	ReversalOf       *uuid.UUID             `gorm:"type:uuid;uniqueIndex"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "ledger_transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Kind:             m.Kind,
		AccountID:        m.AccountID,
		CounterAccountID: m.CounterAccountID,
		Amount:           m.Amount,
		OccurredAt:       m.OccurredAt,
		RecordedAt:       m.RecordedAt,
		RecordedBy:       m.RecordedBy,
		Note:             m.Note,
		InvoiceRef:       m.InvoiceRef,
		OrderRef:         m.OrderRef,
		BalanceBefore:    m.BalanceBefore,
		BalanceAfter:     m.BalanceAfter,
		ReversalOf:       m.ReversalOf,
	}
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Kind = t.Kind
	m.AccountID = t.AccountID
	m.CounterAccountID = t.CounterAccountID
	m.Amount = t.Amount
	m.OccurredAt = t.OccurredAt
	m.RecordedAt = t.RecordedAt
	m.RecordedBy = t.RecordedBy
	m.Note = t.Note
	m.InvoiceRef = t.InvoiceRef
	m.OrderRef = t.OrderRef
	m.BalanceBefore = t.BalanceBefore
	m.BalanceAfter = t.BalanceAfter
	m.ReversalOf = t.ReversalOf
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction.
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// PurchaseInvoiceModel tracks what is still owed on a supplier invoice.
// Payments recorded through the ledger reduce PaidAmount's complement;
// reversals restore it.
type PurchaseInvoiceModel struct {
	BaseModel
	InvoiceNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierName  string          `gorm:"type:varchar(200);not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseInvoiceModel) TableName() string {
	return "purchase_invoices"
}

// OutstandingDue returns how much of the invoice remains unpaid
func (m *PurchaseInvoiceModel) OutstandingDue() decimal.Decimal {
	return m.TotalAmount.Sub(m.PaidAmount)
}
