package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of ledger transaction
type TransactionKind string

const (
	// TransactionKindDeposit is money paid into an account
	TransactionKindDeposit TransactionKind = "DEPOSIT"
	// TransactionKindTransfer moves money between two accounts
	TransactionKindTransfer TransactionKind = "TRANSFER"
	// TransactionKindExpense is money paid out of an account
	TransactionKindExpense TransactionKind = "EXPENSE"
	// TransactionKindPurchasePayment settles (part of) a purchase invoice
	TransactionKindPurchasePayment TransactionKind = "PURCHASE_PAYMENT"
	// TransactionKindSaleReceipt records takings for a sale or order
	TransactionKindSaleReceipt TransactionKind = "SALE_RECEIPT"
)

// String returns the string representation of the transaction kind
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid checks if the transaction kind is valid
func (k TransactionKind) IsValid() bool {
	switch k {
	case TransactionKindDeposit, TransactionKindTransfer, TransactionKindExpense,
		TransactionKindPurchasePayment, TransactionKindSaleReceipt:
		return true
	}
	return false
}

// CreditsAccount reports whether this kind increases the primary account
func (k TransactionKind) CreditsAccount() bool {
	return k == TransactionKindDeposit || k == TransactionKindSaleReceipt
}

// DebitsAccount reports whether this kind decreases the primary account
func (k TransactionKind) DebitsAccount() bool {
	return k == TransactionKindTransfer || k == TransactionKindExpense || k == TransactionKindPurchasePayment
}

// Transaction is an immutable ledger entry. Once appended it is never
// edited or deleted; corrections are recorded as a new transaction with
// ReversalOf pointing at the original.
type Transaction struct {
	shared.BaseEntity
	Kind             TransactionKind
	AccountID        uuid.UUID
	CounterAccountID *uuid.UUID
	Amount           decimal.Decimal
	OccurredAt       time.Time
	RecordedAt       time.Time
	RecordedBy       string
	Note             string
	InvoiceRef       string
	OrderRef         string
	BalanceBefore    decimal.Decimal
	BalanceAfter     decimal.Decimal
	ReversalOf       *uuid.UUID
}

// NewTransaction creates a new transaction with validation.
// Amount must always be positive; direction is carried by the kind.
func NewTransaction(kind TransactionKind, accountID uuid.UUID, amount decimal.Decimal, recordedBy string) (*Transaction, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid transaction kind: "+string(kind))
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Account ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	if strings.TrimSpace(recordedBy) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Recording actor is required")
	}

	now := time.Now()
	return &Transaction{
		BaseEntity: shared.NewBaseEntity(),
		Kind:       kind,
		AccountID:  accountID,
		Amount:     amount,
		OccurredAt: now,
		RecordedAt: now,
		RecordedBy: recordedBy,
	}, nil
}

// WithCounterAccount sets the destination account (transfers only)
func (t *Transaction) WithCounterAccount(counterAccountID uuid.UUID) *Transaction {
	t.CounterAccountID = &counterAccountID
	return t
}

// WithOccurredAt sets the business date of the transaction.
// RecordedAt stays at server time regardless.
func (t *Transaction) WithOccurredAt(occurredAt time.Time) *Transaction {
	if !occurredAt.IsZero() {
		t.OccurredAt = occurredAt
	}
	return t
}

// WithNote sets the free-text note
func (t *Transaction) WithNote(note string) *Transaction {
	t.Note = note
	return t
}

// WithInvoiceRef sets the purchase invoice reference
func (t *Transaction) WithInvoiceRef(invoiceRef string) *Transaction {
	t.InvoiceRef = invoiceRef
	return t
}

// WithOrderRef sets the sale order reference
func (t *Transaction) WithOrderRef(orderRef string) *Transaction {
	t.OrderRef = orderRef
	return t
}

// WithBalanceSnapshot records the primary account balance around the apply
func (t *Transaction) WithBalanceSnapshot(before, after decimal.Decimal) *Transaction {
	t.BalanceBefore = before
	t.BalanceAfter = after
	return t
}

// WithReversalOf links this transaction to the one it reverses
func (t *Transaction) WithReversalOf(originalID uuid.UUID) *Transaction {
	t.ReversalOf = &originalID
	return t
}

// IsReversal reports whether this is a compensating transaction
func (t *Transaction) IsReversal() bool {
	return t.ReversalOf != nil
}

// SignedAmount returns the amount with its effect on the primary
// account: positive for credits, negative for debits. Reversals carry
// the opposite sign of their kind.
func (t *Transaction) SignedAmount() decimal.Decimal {
	signed := t.Amount
	if t.Kind.DebitsAccount() {
		signed = signed.Neg()
	}
	if t.IsReversal() {
		signed = signed.Neg()
	}
	return signed
}

// CreateDeposit creates a deposit transaction
func CreateDeposit(accountID uuid.UUID, amount decimal.Decimal, recordedBy string) (*Transaction, error) {
	return NewTransaction(TransactionKindDeposit, accountID, amount, recordedBy)
}

// CreateTransfer creates a transfer transaction from one account to another
func CreateTransfer(fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, recordedBy string) (*Transaction, error) {
	if toAccountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Counter account ID is required for transfers")
	}
	if fromAccountID == toAccountID {
		return nil, shared.NewDomainError("SAME_ACCOUNT_TRANSFER", "Cannot transfer between the same account")
	}

	tx, err := NewTransaction(TransactionKindTransfer, fromAccountID, amount, recordedBy)
	if err != nil {
		return nil, err
	}
	return tx.WithCounterAccount(toAccountID), nil
}

// CreateExpense creates an expense transaction
func CreateExpense(accountID uuid.UUID, amount decimal.Decimal, recordedBy string) (*Transaction, error) {
	return NewTransaction(TransactionKindExpense, accountID, amount, recordedBy)
}

// CreatePurchasePayment creates a payment against a purchase invoice
func CreatePurchasePayment(accountID uuid.UUID, amount decimal.Decimal, invoiceRef, recordedBy string) (*Transaction, error) {
	if strings.TrimSpace(invoiceRef) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice reference is required for purchase payments")
	}

	tx, err := NewTransaction(TransactionKindPurchasePayment, accountID, amount, recordedBy)
	if err != nil {
		return nil, err
	}
	return tx.WithInvoiceRef(invoiceRef), nil
}

// CreateSaleReceipt creates a receipt for a sale or order
func CreateSaleReceipt(accountID uuid.UUID, amount decimal.Decimal, orderRef, recordedBy string) (*Transaction, error) {
	tx, err := NewTransaction(TransactionKindSaleReceipt, accountID, amount, recordedBy)
	if err != nil {
		return nil, err
	}
	return tx.WithOrderRef(orderRef), nil
}

// CreateReversal creates the compensating transaction for an existing
// entry. It shares the original's kind and amount but carries the
// opposite effect via the ReversalOf link. A reversal cannot itself be
// reversed; reversing a reversal would just re-record the original.
func CreateReversal(original *Transaction, recordedBy string) (*Transaction, error) {
	if original == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Original transaction is required")
	}
	if original.IsReversal() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot reverse a reversal; record the operation again instead")
	}

	tx, err := NewTransaction(original.Kind, original.AccountID, original.Amount, recordedBy)
	if err != nil {
		return nil, err
	}
	tx.CounterAccountID = original.CounterAccountID
	tx.InvoiceRef = original.InvoiceRef
	tx.OrderRef = original.OrderRef
	return tx.WithReversalOf(original.ID), nil
}
