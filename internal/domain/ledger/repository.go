package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountFilter holds account query options
type AccountFilter struct {
	shared.Filter
	Status *AccountStatus
}

// TransactionFilter holds transaction query options
type TransactionFilter struct {
	shared.Filter
	AccountID    *uuid.UUID
	Kind         *TransactionKind
	OccurredFrom *time.Time
	OccurredTo   *time.Time
}

// AccountRepository defines persistence for accounts
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByNumber(ctx context.Context, number string) (*Account, error)
	FindAll(ctx context.Context, filter AccountFilter) ([]*Account, int64, error)

	// Save persists non-monetary changes without a version check.
	Save(ctx context.Context, account *Account) error

	// SaveWithLock persists the account only if the stored version
	// matches the version the aggregate was loaded with. Returns a
	// CONCURRENCY_CONFLICT domain error when another writer got there
	// first.
	SaveWithLock(ctx context.Context, account *Account) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository defines persistence for the append-only
// transaction log. There are deliberately no update or delete methods.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindAll(ctx context.Context, filter TransactionFilter) ([]*Transaction, int64, error)

	// FindByAccount returns every transaction touching the account
	// (as primary or counter account) within the optional time range,
	// ordered by occurrence. Used for statements and drift checks.
	FindByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*Transaction, error)

	// CountByAccount returns how many transactions reference the
	// account, including as the counter side of transfers.
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// FindReversalOf returns the compensating transaction for the
	// given original, or nil when it has not been reversed.
	FindReversalOf(ctx context.Context, originalID uuid.UUID) (*Transaction, error)
}

// InvoiceStore is the port to the purchasing module. The ledger only
// needs the outstanding amount of an invoice and a way to register a
// payment against it.
type InvoiceStore interface {
	OutstandingDue(ctx context.Context, invoiceRef string) (decimal.Decimal, error)
	ApplyPayment(ctx context.Context, invoiceRef string, amount decimal.Decimal) error
}
