package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QueryService serves the read side of the ledger. It never mutates
// monetary state.
type QueryService struct {
	accounts     ledger.AccountRepository
	transactions ledger.TransactionRepository
	maxPageSize  int
	logger       *zap.Logger
}

// NewQueryService creates a new query service
func NewQueryService(accounts ledger.AccountRepository, transactions ledger.TransactionRepository, maxPageSize int, logger *zap.Logger) *QueryService {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &QueryService{
		accounts:     accounts,
		transactions: transactions,
		maxPageSize:  maxPageSize,
		logger:       logger.Named("ledger-query"),
	}
}

// TransactionView is a transaction with account names resolved for display
type TransactionView struct {
	*ledger.Transaction
	AccountName        string
	CounterAccountName string
}

// StatementLine is one transaction of a statement with the running balance after it
type StatementLine struct {
	Transaction    TransactionView
	RunningBalance decimal.Decimal
}

// Statement is an account's transaction history with a consistency
// check: the balance recomputed from the full log compared against the
// account's stored balance.
type Statement struct {
	Account         *ledger.Account
	From            *time.Time
	To              *time.Time
	Lines           []StatementLine
	ComputedBalance decimal.Decimal
	Drift           decimal.Decimal
	Consistent      bool
}

// GetAccount returns a single account by ID
func (s *QueryService) GetAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

// ListAccounts returns accounts matching the filter, paginated.
// Page numbers are 1-indexed; the page size is clamped to the
// configured maximum.
func (s *QueryService) ListAccounts(ctx context.Context, filter ledger.AccountFilter) (shared.Paginated[*ledger.Account], error) {
	s.clampFilter(&filter.Filter)

	accounts, total, err := s.accounts.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*ledger.Account]{}, err
	}
	return shared.NewPaginated(accounts, total, filter.Page, filter.PageSize), nil
}

// ListTransactions returns transactions matching the filter with
// account names resolved, newest first.
func (s *QueryService) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) (shared.Paginated[TransactionView], error) {
	s.clampFilter(&filter.Filter)

	txs, total, err := s.transactions.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[TransactionView]{}, err
	}

	views, err := s.resolveNames(ctx, txs)
	if err != nil {
		return shared.Paginated[TransactionView]{}, err
	}
	return shared.NewPaginated(views, total, filter.Page, filter.PageSize), nil
}

// GetTransaction returns a single transaction with names resolved
func (s *QueryService) GetTransaction(ctx context.Context, id uuid.UUID) (*TransactionView, error) {
	tx, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.resolveNames(ctx, []*ledger.Transaction{tx})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// AccountStatement returns the account's transactions in the range with
// a running balance, plus a drift check of the stored balance against
// the balance recomputed from the complete log.
func (s *QueryService) AccountStatement(ctx context.Context, accountID uuid.UUID, from, to *time.Time) (*Statement, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	full, err := s.transactions.FindByAccount(ctx, accountID, nil, nil)
	if err != nil {
		return nil, err
	}

	// Replay the whole log so the running balance is correct even when
	// the statement starts mid-history.
	running := account.OpeningBalance
	lines := make([]StatementLine, 0)
	for _, tx := range full {
		running = running.Add(s.effectOn(accountID, tx))
		if (from == nil || !tx.OccurredAt.Before(*from)) && (to == nil || !tx.OccurredAt.After(*to)) {
			lines = append(lines, StatementLine{RunningBalance: running})
		}
	}

	// Resolve names only for the lines actually shown
	inRangeTxs := make([]*ledger.Transaction, 0, len(lines))
	for _, tx := range full {
		if (from == nil || !tx.OccurredAt.Before(*from)) && (to == nil || !tx.OccurredAt.After(*to)) {
			inRangeTxs = append(inRangeTxs, tx)
		}
	}
	views, err := s.resolveNames(ctx, inRangeTxs)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].Transaction = views[i]
	}

	drift := account.Balance.Sub(running)
	if !drift.IsZero() {
		s.logger.Warn("Account balance drifts from transaction log",
			zap.String("account_id", accountID.String()),
			zap.String("stored_balance", account.Balance.String()),
			zap.String("computed_balance", running.String()),
			zap.String("drift", drift.String()),
		)
	}

	return &Statement{
		Account:         account,
		From:            from,
		To:              to,
		Lines:           lines,
		ComputedBalance: running,
		Drift:           drift,
		Consistent:      drift.IsZero(),
	}, nil
}

// effectOn returns the transaction's signed effect on the given account,
// covering both the primary side and the counter side of transfers.
func (s *QueryService) effectOn(accountID uuid.UUID, tx *ledger.Transaction) decimal.Decimal {
	if tx.AccountID == accountID {
		return tx.SignedAmount()
	}
	if tx.CounterAccountID != nil && *tx.CounterAccountID == accountID {
		// Incoming side of a transfer: credited normally, debited when
		// the transfer was reversed.
		if tx.IsReversal() {
			return tx.Amount.Neg()
		}
		return tx.Amount
	}
	return decimal.Zero
}

func (s *QueryService) clampFilter(f *shared.Filter) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = shared.DefaultFilter().PageSize
	}
	if f.PageSize > s.maxPageSize {
		f.PageSize = s.maxPageSize
	}
}

// resolveNames attaches account display names to transactions, loading
// each referenced account once.
func (s *QueryService) resolveNames(ctx context.Context, txs []*ledger.Transaction) ([]TransactionView, error) {
	names := make(map[uuid.UUID]string)
	lookup := func(id uuid.UUID) (string, error) {
		if name, ok := names[id]; ok {
			return name, nil
		}
		account, err := s.accounts.FindByID(ctx, id)
		if err != nil {
			if isNotFound(err) {
				// The account may have been deleted before it had
				// history; show the raw ID rather than failing the view.
				names[id] = id.String()
				return names[id], nil
			}
			return "", err
		}
		names[id] = account.Name
		return account.Name, nil
	}

	views := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		view := TransactionView{Transaction: tx}
		name, err := lookup(tx.AccountID)
		if err != nil {
			return nil, err
		}
		view.AccountName = name

		if tx.CounterAccountID != nil {
			counterName, err := lookup(*tx.CounterAccountID)
			if err != nil {
				return nil, err
			}
			view.CounterAccountName = counterName
		}
		views = append(views, view)
	}
	return views, nil
}
