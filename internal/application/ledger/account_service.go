package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountService manages the account lifecycle. Monetary state is out
// of its reach: balances only move through the Engine.
type AccountService struct {
	accounts              ledger.AccountRepository
	transactions          ledger.TransactionRepository
	defaultAllowOverdraft bool
	logger                *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(accounts ledger.AccountRepository, transactions ledger.TransactionRepository, defaultAllowOverdraft bool, logger *zap.Logger) *AccountService {
	return &AccountService{
		accounts:              accounts,
		transactions:          transactions,
		defaultAllowOverdraft: defaultAllowOverdraft,
		logger:                logger.Named("account-service"),
	}
}

// CreateAccountRequest holds input for creating an account
type CreateAccountRequest struct {
	Name           string
	Number         string
	Note           string
	OpeningBalance decimal.Decimal
	AllowOverdraft *bool
	Actor          string
}

// UpdateAccountRequest holds input for updating non-monetary fields
type UpdateAccountRequest struct {
	Name           string
	Number         string
	Note           string
	AllowOverdraft *bool
	Actor          string
}

// CreateAccount creates a new account. When the request does not set an
// overdraft policy the configured default applies.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*ledger.Account, error) {
	existing, err := s.accounts.FindByNumber(ctx, req.Number)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An account with number "+req.Number+" already exists")
	}

	allowOverdraft := s.defaultAllowOverdraft
	if req.AllowOverdraft != nil {
		allowOverdraft = *req.AllowOverdraft
	}

	account, err := ledger.NewAccount(req.Name, req.Number, req.OpeningBalance, allowOverdraft, req.Actor)
	if err != nil {
		return nil, err
	}
	account.Note = req.Note

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("number", account.Number),
		zap.String("opening_balance", account.OpeningBalance.String()),
		zap.String("actor", req.Actor),
	)
	return account, nil
}

// UpdateAccount updates name, number, note and overdraft policy.
// The monetary columns are untouched regardless of input.
func (s *AccountService) UpdateAccount(ctx context.Context, id uuid.UUID, req UpdateAccountRequest) (*ledger.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Number != account.Number {
		existing, err := s.accounts.FindByNumber(ctx, req.Number)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "An account with number "+req.Number+" already exists")
		}
	}

	if err := account.UpdateDetails(req.Name, req.Number, req.Note, req.AllowOverdraft, req.Actor); err != nil {
		return nil, err
	}

	if err := s.accounts.SaveWithLock(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account that has no transaction history.
// Accounts referenced by the log are never deleted; the log's audit
// trail takes precedence.
func (s *AccountService) DeleteAccount(ctx context.Context, id uuid.UUID, actor string) error {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.transactions.CountByAccount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("ACCOUNT_HAS_HISTORY", "Account has transaction history and cannot be deleted")
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Account deleted",
		zap.String("account_id", account.ID.String()),
		zap.String("number", account.Number),
		zap.String("actor", actor),
	)
	return nil
}

// UnfreezeAccount returns a frozen account to service after an operator
// has reconciled its totals against the transaction log.
func (s *AccountService) UnfreezeAccount(ctx context.Context, id uuid.UUID, actor string) (*ledger.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := account.Unfreeze(actor); err != nil {
		return nil, err
	}
	if err := s.accounts.SaveWithLock(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Account unfrozen",
		zap.String("account_id", account.ID.String()),
		zap.String("number", account.Number),
		zap.String("actor", actor),
		zap.Time("at", time.Now()),
	)
	return account, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == "NOT_FOUND" || domainErr.Code == "ACCOUNT_NOT_FOUND"
}
