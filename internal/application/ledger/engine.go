package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EngineConfig holds tunables for the ledger engine
type EngineConfig struct {
	// MaxRetries bounds how often an operation is retried from scratch
	// after an optimistic-lock conflict before the conflict is surfaced.
	MaxRetries int
	// IdempotencyTTL is how long processed idempotency keys are remembered.
	IdempotencyTTL time.Duration
}

// DefaultEngineConfig returns the default engine configuration
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxRetries:     3,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Engine executes the ledger write operations: every monetary mutation
// of an account paired with an immutable transaction record. On partial
// failure it compensates already-applied deltas; if compensation itself
// fails the account is frozen and the incident logged.
type Engine struct {
	accounts     ledger.AccountRepository
	transactions ledger.TransactionRepository
	invoices     ledger.InvoiceStore
	idempotency  shared.IdempotencyStore
	config       EngineConfig
	logger       *zap.Logger
}

// NewEngine creates a new ledger engine. The idempotency store may be
// nil, in which case idempotency keys are ignored.
func NewEngine(
	accounts ledger.AccountRepository,
	transactions ledger.TransactionRepository,
	invoices ledger.InvoiceStore,
	idempotency shared.IdempotencyStore,
	config EngineConfig,
	logger *zap.Logger,
) *Engine {
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultEngineConfig().MaxRetries
	}
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = DefaultEngineConfig().IdempotencyTTL
	}
	return &Engine{
		accounts:     accounts,
		transactions: transactions,
		invoices:     invoices,
		idempotency:  idempotency,
		config:       config,
		logger:       logger.Named("ledger-engine"),
	}
}

// DepositRequest holds input for recording a deposit
type DepositRequest struct {
	AccountID      uuid.UUID
	Amount         decimal.Decimal
	OccurredAt     time.Time
	Note           string
	Actor          string
	IdempotencyKey string
}

// TransferRequest holds input for recording a transfer
type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	OccurredAt    time.Time
	Note          string
	Actor         string
}

// ExpenseRequest holds input for recording an expense
type ExpenseRequest struct {
	AccountID  uuid.UUID
	Amount     decimal.Decimal
	OccurredAt time.Time
	Note       string
	Actor      string
}

// PurchasePaymentRequest holds input for paying a purchase invoice
type PurchasePaymentRequest struct {
	AccountID  uuid.UUID
	Amount     decimal.Decimal
	InvoiceRef string
	OccurredAt time.Time
	Note       string
	Actor      string
}

// SaleReceiptRequest holds input for recording sale takings
type SaleReceiptRequest struct {
	AccountID  uuid.UUID
	Amount     decimal.Decimal
	OrderRef   string
	OccurredAt time.Time
	Note       string
	Actor      string
}

// Result holds the outcome of a ledger write
type Result struct {
	Transaction    *ledger.Transaction
	Account        *ledger.Account
	CounterAccount *ledger.Account
}

// RecordDeposit credits an account and appends the deposit record.
// An optional idempotency key makes client retries safe: a replayed key
// is rejected with DUPLICATE_REQUEST before any delta is applied.
func (e *Engine) RecordDeposit(ctx context.Context, req DepositRequest) (*Result, error) {
	if req.IdempotencyKey != "" && e.idempotency != nil {
		fresh, err := e.idempotency.MarkProcessed(ctx, "ledger:deposit:"+req.IdempotencyKey, e.config.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !fresh {
			return nil, shared.NewDomainError("DUPLICATE_REQUEST", "A deposit with this idempotency key was already processed")
		}
	}

	var result *Result
	err := e.withConflictRetry(ctx, "RecordDeposit", func() error {
		account, err := e.accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			return err
		}

		tx, err := ledger.CreateDeposit(req.AccountID, req.Amount, req.Actor)
		if err != nil {
			return err
		}
		tx.WithOccurredAt(req.OccurredAt).WithNote(req.Note)

		tx, err = e.applyAndAppend(ctx, account, req.Amount, decimal.Zero, req.Actor, tx)
		if err != nil {
			return err
		}
		result = &Result{Transaction: tx, Account: account}
		return nil
	})
	return result, err
}

// RecordTransfer debits the source account and credits the destination,
// atomically with the transfer record. No partial state survives a
// failure: whichever side was already saved is compensated.
func (e *Engine) RecordTransfer(ctx context.Context, req TransferRequest) (*Result, error) {
	var result *Result
	err := e.withConflictRetry(ctx, "RecordTransfer", func() error {
		tx, err := ledger.CreateTransfer(req.FromAccountID, req.ToAccountID, req.Amount, req.Actor)
		if err != nil {
			return err
		}
		tx.WithOccurredAt(req.OccurredAt).WithNote(req.Note)

		from, err := e.accounts.FindByID(ctx, req.FromAccountID)
		if err != nil {
			return err
		}
		to, err := e.accounts.FindByID(ctx, req.ToAccountID)
		if err != nil {
			return err
		}

		before := from.Balance
		if err := from.ApplyDelta(decimal.Zero, req.Amount, req.Actor); err != nil {
			return err
		}
		if err := to.ApplyDelta(req.Amount, decimal.Zero, req.Actor); err != nil {
			return err
		}
		tx.WithBalanceSnapshot(before, from.Balance)

		// Stable save order keeps concurrent opposing transfers from
		// ping-ponging conflicts between each other.
		first, second := from, to
		firstCredit, firstDebit := decimal.Zero, req.Amount
		secondCredit, secondDebit := req.Amount, decimal.Zero
		if to.ID.String() < from.ID.String() {
			first, second = to, from
			firstCredit, firstDebit = req.Amount, decimal.Zero
			secondCredit, secondDebit = decimal.Zero, req.Amount
		}

		if err := e.accounts.SaveWithLock(ctx, first); err != nil {
			return err
		}
		if err := e.accounts.SaveWithLock(ctx, second); err != nil {
			if cerr := e.compensate(ctx, first, firstCredit, firstDebit); cerr != nil {
				return cerr
			}
			return err
		}

		if err := e.transactions.Create(ctx, tx); err != nil {
			err = fmt.Errorf("failed to append transfer record: %w", err)
			if cerr := e.compensate(ctx, second, secondCredit, secondDebit); cerr != nil {
				return cerr
			}
			if cerr := e.compensate(ctx, first, firstCredit, firstDebit); cerr != nil {
				return cerr
			}
			return err
		}

		result = &Result{Transaction: tx, Account: from, CounterAccount: to}
		return nil
	})
	return result, err
}

// RecordExpense debits an account and appends the expense record
func (e *Engine) RecordExpense(ctx context.Context, req ExpenseRequest) (*Result, error) {
	var result *Result
	err := e.withConflictRetry(ctx, "RecordExpense", func() error {
		account, err := e.accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			return err
		}

		tx, err := ledger.CreateExpense(req.AccountID, req.Amount, req.Actor)
		if err != nil {
			return err
		}
		tx.WithOccurredAt(req.OccurredAt).WithNote(req.Note)

		tx, err = e.applyAndAppend(ctx, account, decimal.Zero, req.Amount, req.Actor, tx)
		if err != nil {
			return err
		}
		result = &Result{Transaction: tx, Account: account}
		return nil
	})
	return result, err
}

// RecordPurchasePayment debits an account against a purchase invoice.
// Paying more than the invoice's outstanding due is rejected.
func (e *Engine) RecordPurchasePayment(ctx context.Context, req PurchasePaymentRequest) (*Result, error) {
	var result *Result
	err := e.withConflictRetry(ctx, "RecordPurchasePayment", func() error {
		tx, err := ledger.CreatePurchasePayment(req.AccountID, req.Amount, req.InvoiceRef, req.Actor)
		if err != nil {
			return err
		}
		tx.WithOccurredAt(req.OccurredAt).WithNote(req.Note)

		due, err := e.invoices.OutstandingDue(ctx, req.InvoiceRef)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(due) {
			return shared.NewDomainError("OVERPAYMENT_REJECTED", fmt.Sprintf("Payment %s exceeds outstanding due %s on invoice %s", req.Amount.String(), due.String(), req.InvoiceRef))
		}

		account, err := e.accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			return err
		}

		before := account.Balance
		if err := account.ApplyDelta(decimal.Zero, req.Amount, req.Actor); err != nil {
			return err
		}
		tx.WithBalanceSnapshot(before, account.Balance)

		if err := e.accounts.SaveWithLock(ctx, account); err != nil {
			return err
		}

		if err := e.invoices.ApplyPayment(ctx, req.InvoiceRef, req.Amount); err != nil {
			err = fmt.Errorf("failed to apply payment to invoice %s: %w", req.InvoiceRef, err)
			if cerr := e.compensate(ctx, account, decimal.Zero, req.Amount); cerr != nil {
				return cerr
			}
			return err
		}

		if err := e.transactions.Create(ctx, tx); err != nil {
			err = fmt.Errorf("failed to append payment record: %w", err)
			if ierr := e.invoices.ApplyPayment(ctx, req.InvoiceRef, req.Amount.Neg()); ierr != nil {
				e.logger.Error("Failed to roll back invoice payment",
					zap.String("invoice_ref", req.InvoiceRef),
					zap.String("amount", req.Amount.String()),
					zap.Error(ierr),
				)
			}
			if cerr := e.compensate(ctx, account, decimal.Zero, req.Amount); cerr != nil {
				return cerr
			}
			return err
		}

		result = &Result{Transaction: tx, Account: account}
		return nil
	})
	return result, err
}

// RecordSaleReceipt credits an account with sale takings
func (e *Engine) RecordSaleReceipt(ctx context.Context, req SaleReceiptRequest) (*Result, error) {
	var result *Result
	err := e.withConflictRetry(ctx, "RecordSaleReceipt", func() error {
		account, err := e.accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			return err
		}

		tx, err := ledger.CreateSaleReceipt(req.AccountID, req.Amount, req.OrderRef, req.Actor)
		if err != nil {
			return err
		}
		tx.WithOccurredAt(req.OccurredAt).WithNote(req.Note)

		tx, err = e.applyAndAppend(ctx, account, req.Amount, decimal.Zero, req.Actor, tx)
		if err != nil {
			return err
		}
		result = &Result{Transaction: tx, Account: account}
		return nil
	})
	return result, err
}

// ReverseTransaction records the compensating entry for an existing
// transaction. The original stays untouched; the correction is a new
// opposite-direction transaction linked through ReversalOf. A
// transaction can only be reversed once.
func (e *Engine) ReverseTransaction(ctx context.Context, transactionID uuid.UUID, actor string) (*Result, error) {
	var result *Result
	err := e.withConflictRetry(ctx, "ReverseTransaction", func() error {
		original, err := e.transactions.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}

		existing, err := e.transactions.FindReversalOf(ctx, transactionID)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.NewDomainError("INVALID_STATE", "Transaction has already been reversed")
		}

		reversal, err := ledger.CreateReversal(original, actor)
		if err != nil {
			return err
		}
		reversal.WithNote("Reversal of " + original.ID.String())

		// The reversal's effect on each account is the opposite of the
		// original's.
		creditDelta, debitDelta := decimal.Zero, original.Amount
		if original.Kind.DebitsAccount() {
			creditDelta, debitDelta = original.Amount, decimal.Zero
		}

		account, err := e.accounts.FindByID(ctx, original.AccountID)
		if err != nil {
			return err
		}

		if original.Kind == ledger.TransactionKindTransfer && original.CounterAccountID != nil {
			counter, err := e.accounts.FindByID(ctx, *original.CounterAccountID)
			if err != nil {
				return err
			}

			before := account.Balance
			if err := account.ApplyDelta(creditDelta, debitDelta, actor); err != nil {
				return err
			}
			if err := counter.ApplyDelta(decimal.Zero, original.Amount, actor); err != nil {
				return err
			}
			reversal.WithBalanceSnapshot(before, account.Balance)

			if err := e.accounts.SaveWithLock(ctx, account); err != nil {
				return err
			}
			if err := e.accounts.SaveWithLock(ctx, counter); err != nil {
				if cerr := e.compensate(ctx, account, creditDelta, debitDelta); cerr != nil {
					return cerr
				}
				return err
			}

			if err := e.transactions.Create(ctx, reversal); err != nil {
				err = fmt.Errorf("failed to append reversal record: %w", err)
				if cerr := e.compensate(ctx, counter, decimal.Zero, original.Amount); cerr != nil {
					return cerr
				}
				if cerr := e.compensate(ctx, account, creditDelta, debitDelta); cerr != nil {
					return cerr
				}
				return err
			}

			result = &Result{Transaction: reversal, Account: account, CounterAccount: counter}
			return nil
		}

		if original.Kind == ledger.TransactionKindPurchasePayment && original.InvoiceRef != "" {
			// Reversing a payment restores the invoice's outstanding due.
			if err := e.invoices.ApplyPayment(ctx, original.InvoiceRef, original.Amount.Neg()); err != nil {
				return fmt.Errorf("failed to restore due on invoice %s: %w", original.InvoiceRef, err)
			}
		}

		reversal, err = e.applyAndAppend(ctx, account, creditDelta, debitDelta, actor, reversal)
		if err != nil {
			if original.Kind == ledger.TransactionKindPurchasePayment && original.InvoiceRef != "" {
				if ierr := e.invoices.ApplyPayment(ctx, original.InvoiceRef, original.Amount); ierr != nil {
					e.logger.Error("Failed to re-apply invoice payment after reversal failure",
						zap.String("invoice_ref", original.InvoiceRef),
						zap.Error(ierr),
					)
				}
			}
			return err
		}
		result = &Result{Transaction: reversal, Account: account}
		return nil
	})
	return result, err
}

// applyAndAppend is the shared single-account write path: apply the
// delta, save with the version check, append the transaction. If the
// append fails after the save, the delta is compensated.
func (e *Engine) applyAndAppend(ctx context.Context, account *ledger.Account, creditDelta, debitDelta decimal.Decimal, actor string, tx *ledger.Transaction) (*ledger.Transaction, error) {
	before := account.Balance
	if err := account.ApplyDelta(creditDelta, debitDelta, actor); err != nil {
		return nil, err
	}
	tx.WithBalanceSnapshot(before, account.Balance)

	if err := e.accounts.SaveWithLock(ctx, account); err != nil {
		return nil, err
	}

	if err := e.transactions.Create(ctx, tx); err != nil {
		err = fmt.Errorf("failed to append transaction record: %w", err)
		if cerr := e.compensate(ctx, account, creditDelta, debitDelta); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}
	return tx, nil
}

// compensate undoes an already-saved delta by applying its opposite.
// When the compensation cannot be persisted either, the account's
// stored totals no longer match the log: the account is frozen and
// LEDGER_CORRUPTION returned.
func (e *Engine) compensate(ctx context.Context, account *ledger.Account, creditDelta, debitDelta decimal.Decimal) error {
	balanceBefore := account.Balance

	err := e.applyCompensation(ctx, account, creditDelta, debitDelta)
	if err != nil {
		e.logger.Error("Compensation failed, freezing account",
			zap.String("account_id", account.ID.String()),
			zap.String("account_number", account.Number),
			zap.String("balance", balanceBefore.String()),
			zap.String("credit_delta", creditDelta.String()),
			zap.String("debit_delta", debitDelta.String()),
			zap.Error(err),
		)
		account.Freeze("system")
		if serr := e.accounts.Save(ctx, account); serr != nil {
			e.logger.Error("Failed to persist account freeze",
				zap.String("account_id", account.ID.String()),
				zap.Error(serr),
			)
		}
		return shared.NewDomainError("LEDGER_CORRUPTION", fmt.Sprintf("Account %s could not be restored after a partial write and has been frozen", account.Number))
	}

	e.logger.Warn("ledger inconsistency recovered",
		zap.String("account_id", account.ID.String()),
		zap.String("account_number", account.Number),
		zap.String("credit_delta", creditDelta.String()),
		zap.String("debit_delta", debitDelta.String()),
	)
	return nil
}

// applyCompensation persists the negated delta. A lock conflict here
// only means another writer got in between; the compensation is still
// valid against the fresh version, so it is re-applied on a reload
// rather than treated as corruption.
func (e *Engine) applyCompensation(ctx context.Context, account *ledger.Account, creditDelta, debitDelta decimal.Decimal) error {
	err := account.ApplyDelta(creditDelta.Neg(), debitDelta.Neg(), "system")
	if err == nil {
		err = e.accounts.SaveWithLock(ctx, account)
	}

	for attempt := 0; attempt < e.config.MaxRetries && isConcurrencyConflict(err); attempt++ {
		fresh, ferr := e.accounts.FindByID(ctx, account.ID)
		if ferr != nil {
			return ferr
		}
		err = fresh.ApplyDelta(creditDelta.Neg(), debitDelta.Neg(), "system")
		if err == nil {
			err = e.accounts.SaveWithLock(ctx, fresh)
		}
		if err == nil {
			*account = *fresh
		}
	}
	return err
}

// withConflictRetry reruns the operation from scratch after an
// optimistic-lock conflict, up to the configured bound. Each attempt
// reloads and revalidates; only the conflict error is retried.
func (e *Engine) withConflictRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Debug("Retrying after concurrency conflict",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
			)
		}
		err = fn()
		if !isConcurrencyConflict(err) {
			return err
		}
	}
	e.logger.Warn("Concurrency conflict persisted past retry bound",
		zap.String("operation", op),
		zap.Int("max_retries", e.config.MaxRetries),
	)
	return err
}

func isConcurrencyConflict(err error) bool {
	if err == nil {
		return false
	}
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == "CONCURRENCY_CONFLICT"
}
