package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
)

// fakeAccountRepository is an in-memory account store with the same
// optimistic-locking semantics as the SQL implementation. It backs the
// concurrency and query tests where mock expectations would get in the way.
type fakeAccountRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]ledger.Account
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{accounts: make(map[uuid.UUID]ledger.Account)}
}

func (r *fakeAccountRepository) Create(ctx context.Context, account *ledger.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[id]
	if !ok {
		return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}
	copied := stored
	return &copied, nil
}

func (r *fakeAccountRepository) FindByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.accounts {
		if stored.Number == number {
			copied := stored
			return &copied, nil
		}
	}
	return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
}

func (r *fakeAccountRepository) FindAll(ctx context.Context, filter ledger.AccountFilter) ([]*ledger.Account, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*ledger.Account, 0, len(r.accounts))
	for _, stored := range r.accounts {
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		copied := stored
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number < all[j].Number })

	total := int64(len(all))
	start := filter.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.PageSize
	if filter.PageSize <= 0 || end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepository) SaveWithLock(ctx context.Context, account *ledger.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[account.ID]
	if !ok {
		return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
	}
	if stored.Version != account.Version-1 {
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "Account was modified concurrently")
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

// fakeTransactionRepository is an in-memory append-only transaction log
type fakeTransactionRepository struct {
	mu  sync.Mutex
	log []ledger.Transaction
}

func newFakeTransactionRepository() *fakeTransactionRepository {
	return &fakeTransactionRepository{}
}

func (r *fakeTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, *tx)
	return nil
}

func (r *fakeTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.log {
		if tx.ID == id {
			copied := tx
			return &copied, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "Transaction not found")
}

func (r *fakeTransactionRepository) FindAll(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*ledger.Transaction, 0)
	for i := range r.log {
		tx := r.log[i]
		if filter.AccountID != nil && tx.AccountID != *filter.AccountID {
			continue
		}
		if filter.Kind != nil && tx.Kind != *filter.Kind {
			continue
		}
		if filter.OccurredFrom != nil && tx.OccurredAt.Before(*filter.OccurredFrom) {
			continue
		}
		if filter.OccurredTo != nil && tx.OccurredAt.After(*filter.OccurredTo) {
			continue
		}
		copied := tx
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].OccurredAt.After(matched[j].OccurredAt)
		}
		return matched[i].RecordedAt.After(matched[j].RecordedAt)
	})

	total := int64(len(matched))
	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PageSize
	if filter.PageSize <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*ledger.Transaction, 0)
	for i := range r.log {
		tx := r.log[i]
		touches := tx.AccountID == accountID || (tx.CounterAccountID != nil && *tx.CounterAccountID == accountID)
		if !touches {
			continue
		}
		if from != nil && tx.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && tx.OccurredAt.After(*to) {
			continue
		}
		copied := tx
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].OccurredAt.Before(matched[j].OccurredAt)
		}
		return matched[i].RecordedAt.Before(matched[j].RecordedAt)
	})
	return matched, nil
}

func (r *fakeTransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, tx := range r.log {
		if tx.AccountID == accountID || (tx.CounterAccountID != nil && *tx.CounterAccountID == accountID) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTransactionRepository) FindReversalOf(ctx context.Context, originalID uuid.UUID) (*ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.log {
		if tx.ReversalOf != nil && *tx.ReversalOf == originalID {
			copied := tx
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepository) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.log)
}
