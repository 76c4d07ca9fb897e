package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountStatus represents the lifecycle status of an account
type AccountStatus string

const (
	// AccountStatusActive means the account accepts ledger writes
	AccountStatusActive AccountStatus = "active"
	// AccountStatusFrozen means all ledger writes are rejected.
	// An account is frozen when a compensation failed and its stored
	// totals can no longer be trusted; it stays frozen until an operator
	// reconciles it against the transaction log and unfreezes it.
	AccountStatusFrozen AccountStatus = "frozen"
)

// String returns the string representation of the status
func (s AccountStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s AccountStatus) IsValid() bool {
	return s == AccountStatusActive || s == AccountStatusFrozen
}

// Account is the aggregate root for a money account (cash drawer, bank
// account, wallet). Balance, Credit and Debit are only ever mutated
// through ApplyDelta so that the running totals and the transaction log
// cannot drift apart through ordinary edits.
type Account struct {
	shared.BaseAggregateRoot
	Name           string
	Number         string
	Note           string
	OpeningBalance decimal.Decimal
	Balance        decimal.Decimal
	Credit         decimal.Decimal
	Debit          decimal.Decimal
	AllowOverdraft bool
	Status         AccountStatus
	UpdatedBy      string
}

// NewAccount creates a new account with the given opening balance
func NewAccount(name, number string, openingBalance decimal.Decimal, allowOverdraft bool, actor string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Account name is required")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Account number is required")
	}
	if openingBalance.IsNegative() && !allowOverdraft {
		return nil, shared.NewDomainError("INVALID_DELTA", "Opening balance cannot be negative unless overdraft is allowed")
	}

	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Number:            number,
		OpeningBalance:    openingBalance,
		Balance:           openingBalance,
		Credit:            decimal.Zero,
		Debit:             decimal.Zero,
		AllowOverdraft:    allowOverdraft,
		Status:            AccountStatusActive,
		UpdatedBy:         actor,
	}, nil
}

// ApplyDelta is the only mutation path for the monetary fields. Credits
// increase the balance, debits decrease it. Deltas may be negative only
// when undoing a previously applied delta (compensation); the cumulative
// Credit and Debit totals must never go negative.
func (a *Account) ApplyDelta(creditDelta, debitDelta decimal.Decimal, actor string) error {
	if a.Status == AccountStatusFrozen {
		return shared.NewDomainError("ACCOUNT_FROZEN", fmt.Sprintf("Account %s is frozen and rejects ledger writes", a.Number))
	}

	newCredit := a.Credit.Add(creditDelta)
	newDebit := a.Debit.Add(debitDelta)
	if newCredit.IsNegative() || newDebit.IsNegative() {
		return shared.NewDomainError("INVALID_DELTA", "Delta would make cumulative totals negative")
	}

	newBalance := a.Balance.Add(creditDelta).Sub(debitDelta)
	if newBalance.IsNegative() && !a.AllowOverdraft {
		return shared.NewDomainError("INVALID_DELTA", fmt.Sprintf("Insufficient balance on account %s: balance %s, requested debit %s", a.Number, a.Balance.String(), debitDelta.String()))
	}

	a.Balance = newBalance
	a.Credit = newCredit
	a.Debit = newDebit
	a.UpdatedBy = actor
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// UpdateDetails updates the non-monetary fields, including the
// per-account overdraft policy when allowOverdraft is set. Balance,
// Credit and Debit are deliberately untouchable here. The version is
// bumped exactly once regardless of how many fields change, so one
// update maps to one optimistic-lock save.
func (a *Account) UpdateDetails(name, number, note string, allowOverdraft *bool, actor string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Account name is required")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.NewDomainError("INVALID_INPUT", "Account number is required")
	}

	a.Name = name
	a.Number = number
	a.Note = note
	if allowOverdraft != nil {
		a.AllowOverdraft = *allowOverdraft
	}
	a.UpdatedBy = actor
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// Freeze marks the account as frozen, rejecting all further ledger writes
func (a *Account) Freeze(actor string) {
	a.Status = AccountStatusFrozen
	a.UpdatedBy = actor
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// Unfreeze returns a frozen account to active status
func (a *Account) Unfreeze(actor string) error {
	if a.Status != AccountStatusFrozen {
		return shared.NewDomainError("INVALID_STATE", "Account is not frozen")
	}
	a.Status = AccountStatusActive
	a.UpdatedBy = actor
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// IsFrozen reports whether the account rejects ledger writes
func (a *Account) IsFrozen() bool {
	return a.Status == AccountStatusFrozen
}

// CheckInvariant verifies that Balance == OpeningBalance + Credit - Debit
func (a *Account) CheckInvariant() error {
	expected := a.OpeningBalance.Add(a.Credit).Sub(a.Debit)
	if !a.Balance.Equal(expected) {
		return shared.NewDomainError("LEDGER_CORRUPTION", fmt.Sprintf("Account %s balance %s does not match opening %s + credit %s - debit %s", a.Number, a.Balance.String(), a.OpeningBalance.String(), a.Credit.String(), a.Debit.String()))
	}
	return nil
}
