package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAccountFixture(t *testing.T) (*AccountService, *Engine, *fakeAccountRepository, *fakeTransactionRepository) {
	t.Helper()
	accounts := newFakeAccountRepository()
	txs := newFakeTransactionRepository()
	service := NewAccountService(accounts, txs, false, zap.NewNop())
	engine := newTestEngine(accounts, txs, nil, nil)
	return service, engine, accounts, txs
}

func TestAccountService_CreateAccount(t *testing.T) {
	service, _, _, _ := newAccountFixture(t)

	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name:           "Front till",
		Number:         "CASH-001",
		Note:           "main register",
		OpeningBalance: decimal.NewFromInt(200),
		Actor:          "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, "Front till", account.Name)
	assert.Equal(t, "CASH-001", account.Number)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(200)))
	assert.True(t, account.OpeningBalance.Equal(decimal.NewFromInt(200)))
	assert.True(t, account.Credit.IsZero())
	assert.True(t, account.Debit.IsZero())
	assert.False(t, account.AllowOverdraft)
	assert.Equal(t, ledger.AccountStatusActive, account.Status)
	assert.Equal(t, "admin", account.UpdatedBy)
}

func TestAccountService_CreateAccount_DuplicateNumber(t *testing.T) {
	service, _, _, _ := newAccountFixture(t)

	_, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", Actor: "admin",
	})
	require.NoError(t, err)

	_, err = service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Back till", Number: "CASH-001", Actor: "admin",
	})
	require.Error(t, err)
	assertDomainErrorCode(t, err, "ALREADY_EXISTS")
}

func TestAccountService_CreateAccount_OverdraftDefault(t *testing.T) {
	accounts := newFakeAccountRepository()
	txs := newFakeTransactionRepository()
	service := NewAccountService(accounts, txs, true, zap.NewNop())

	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Supplier wallet", Number: "WAL-001", Actor: "admin",
	})
	require.NoError(t, err)
	assert.True(t, account.AllowOverdraft)

	// An explicit request beats the default
	off := false
	account, err = service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", AllowOverdraft: &off, Actor: "admin",
	})
	require.NoError(t, err)
	assert.False(t, account.AllowOverdraft)
}

func TestAccountService_CreateAccount_NegativeOpeningNeedsOverdraft(t *testing.T) {
	service, _, _, _ := newAccountFixture(t)

	_, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name:           "Supplier wallet",
		Number:         "WAL-001",
		OpeningBalance: decimal.NewFromInt(-50),
		Actor:          "admin",
	})
	require.Error(t, err)
	assertDomainErrorCode(t, err, "INVALID_DELTA")

	on := true
	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name:           "Supplier wallet",
		Number:         "WAL-001",
		OpeningBalance: decimal.NewFromInt(-50),
		AllowOverdraft: &on,
		Actor:          "admin",
	})
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(-50)))
}

func TestAccountService_UpdateAccount(t *testing.T) {
	service, engine, accounts, _ := newAccountFixture(t)
	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", OpeningBalance: decimal.NewFromInt(100), Actor: "admin",
	})
	require.NoError(t, err)

	_, err = engine.RecordDeposit(context.Background(), DepositRequest{
		AccountID: account.ID, Amount: decimal.NewFromInt(40), Actor: "clerk",
	})
	require.NoError(t, err)

	updated, err := service.UpdateAccount(context.Background(), account.ID, UpdateAccountRequest{
		Name: "Main register", Number: "CASH-001", Note: "renamed", Actor: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "Main register", updated.Name)
	assert.Equal(t, "renamed", updated.Note)
	// Rename never touches the money columns
	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(140)))
	assert.True(t, updated.Credit.Equal(decimal.NewFromInt(40)))

	stored, err := accounts.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main register", stored.Name)
	assert.NoError(t, stored.CheckInvariant())
}

func TestAccountService_UpdateAccount_TogglesOverdraft(t *testing.T) {
	service, _, accounts, _ := newAccountFixture(t)
	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", Actor: "admin",
	})
	require.NoError(t, err)
	require.False(t, account.AllowOverdraft)

	on := true
	updated, err := service.UpdateAccount(context.Background(), account.ID, UpdateAccountRequest{
		Name: "Front till", Number: "CASH-001", AllowOverdraft: &on, Actor: "admin",
	})
	require.NoError(t, err)
	assert.True(t, updated.AllowOverdraft)

	stored, err := accounts.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, stored.AllowOverdraft)

	// And back off again, proving the policy stays editable
	off := false
	updated, err = service.UpdateAccount(context.Background(), account.ID, UpdateAccountRequest{
		Name: "Front till", Number: "CASH-001", AllowOverdraft: &off, Actor: "admin",
	})
	require.NoError(t, err)
	assert.False(t, updated.AllowOverdraft)
}

func TestAccountService_UpdateAccount_NumberTakenByOther(t *testing.T) {
	service, _, _, _ := newAccountFixture(t)
	_, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", Actor: "admin",
	})
	require.NoError(t, err)
	second, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Back till", Number: "CASH-002", Actor: "admin",
	})
	require.NoError(t, err)

	_, err = service.UpdateAccount(context.Background(), second.ID, UpdateAccountRequest{
		Name: "Back till", Number: "CASH-001", Actor: "admin",
	})
	require.Error(t, err)
	assertDomainErrorCode(t, err, "ALREADY_EXISTS")
}

func TestAccountService_DeleteAccount(t *testing.T) {
	service, _, accounts, _ := newAccountFixture(t)
	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", Actor: "admin",
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteAccount(context.Background(), account.ID, "admin"))

	_, err = accounts.FindByID(context.Background(), account.ID)
	require.Error(t, err)
	assertDomainErrorCode(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAccountService_DeleteAccount_WithHistory(t *testing.T) {
	service, engine, accounts, _ := newAccountFixture(t)
	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", Actor: "admin",
	})
	require.NoError(t, err)

	_, err = engine.RecordDeposit(context.Background(), DepositRequest{
		AccountID: account.ID, Amount: decimal.NewFromInt(10), Actor: "clerk",
	})
	require.NoError(t, err)

	err = service.DeleteAccount(context.Background(), account.ID, "admin")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "ACCOUNT_HAS_HISTORY")

	// Still there
	_, err = accounts.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
}

func TestAccountService_DeleteAccount_CounterSideHistoryCounts(t *testing.T) {
	service, engine, _, _ := newAccountFixture(t)
	from, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", OpeningBalance: decimal.NewFromInt(100), Actor: "admin",
	})
	require.NoError(t, err)
	to, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Bank", Number: "BANK-001", Actor: "admin",
	})
	require.NoError(t, err)

	_, err = engine.RecordTransfer(context.Background(), TransferRequest{
		FromAccountID: from.ID, ToAccountID: to.ID, Amount: decimal.NewFromInt(10), Actor: "clerk",
	})
	require.NoError(t, err)

	// The destination only appears as the counter side, but that is
	// history all the same.
	err = service.DeleteAccount(context.Background(), to.ID, "admin")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "ACCOUNT_HAS_HISTORY")
}

func TestAccountService_DeleteAccount_NotFound(t *testing.T) {
	service, _, _, _ := newAccountFixture(t)

	err := service.DeleteAccount(context.Background(), uuid.New(), "admin")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAccountService_UnfreezeAccount(t *testing.T) {
	service, _, accounts, _ := newAccountFixture(t)
	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", Actor: "admin",
	})
	require.NoError(t, err)

	frozen, err := accounts.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	frozen.Freeze("system")
	require.NoError(t, accounts.SaveWithLock(context.Background(), frozen))

	unfrozen, err := service.UnfreezeAccount(context.Background(), account.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountStatusActive, unfrozen.Status)
	assert.Equal(t, "admin", unfrozen.UpdatedBy)
}

func TestAccountService_UnfreezeAccount_NotFrozen(t *testing.T) {
	service, _, _, _ := newAccountFixture(t)
	account, err := service.CreateAccount(context.Background(), CreateAccountRequest{
		Name: "Front till", Number: "CASH-001", Actor: "admin",
	})
	require.NoError(t, err)

	_, err = service.UnfreezeAccount(context.Background(), account.ID, "admin")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "INVALID_STATE")
}
