package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context, filter ledger.AccountFilter) ([]*ledger.Account, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) SaveWithLock(ctx context.Context, account *ledger.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindAll(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) FindReversalOf(ctx context.Context, originalID uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, originalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

type MockInvoiceStore struct {
	mock.Mock
}

func (m *MockInvoiceStore) OutstandingDue(ctx context.Context, invoiceRef string) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceRef)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceStore) ApplyPayment(ctx context.Context, invoiceRef string, amount decimal.Decimal) error {
	args := m.Called(ctx, invoiceRef, amount)
	return args.Error(0)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
