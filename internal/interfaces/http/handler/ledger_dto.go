package handler

import (
	"time"

	"github.com/google/uuid"
	ledgerapp "github.com/resto/backoffice/internal/application/ledger"
	"github.com/resto/backoffice/internal/domain/ledger"
)

// Monetary values cross the API as decimal strings, never floats.

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Number         string    `json:"number"`
	Note           string    `json:"note,omitempty"`
	OpeningBalance string    `json:"opening_balance"`
	Balance        string    `json:"balance"`
	Credit         string    `json:"credit"`
	Debit          string    `json:"debit"`
	AllowOverdraft bool      `json:"allow_overdraft"`
	Status         string    `json:"status"`
	UpdatedBy      string    `json:"updated_by"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID.String(),
		Name:           a.Name,
		Number:         a.Number,
		Note:           a.Note,
		OpeningBalance: a.OpeningBalance.String(),
		Balance:        a.Balance.String(),
		Credit:         a.Credit.String(),
		Debit:          a.Debit.String(),
		AllowOverdraft: a.AllowOverdraft,
		Status:         a.Status.String(),
		UpdatedBy:      a.UpdatedBy,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toAccountResponses(accounts []*ledger.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = toAccountResponse(a)
	}
	return out
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID                 string    `json:"id"`
	Kind               string    `json:"kind"`
	AccountID          string    `json:"account_id"`
	AccountName        string    `json:"account_name,omitempty"`
	CounterAccountID   *string   `json:"counter_account_id,omitempty"`
	CounterAccountName string    `json:"counter_account_name,omitempty"`
	Amount             string    `json:"amount"`
	OccurredAt         time.Time `json:"occurred_at"`
	RecordedAt         time.Time `json:"recorded_at"`
	RecordedBy         string    `json:"recorded_by"`
	Note               string    `json:"note,omitempty"`
	InvoiceRef         string    `json:"invoice_ref,omitempty"`
	OrderRef           string    `json:"order_ref,omitempty"`
	BalanceBefore      string    `json:"balance_before"`
	BalanceAfter       string    `json:"balance_after"`
	ReversalOf         *string   `json:"reversal_of,omitempty"`
}

func toTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            tx.ID.String(),
		Kind:          string(tx.Kind),
		AccountID:     tx.AccountID.String(),
		Amount:        tx.Amount.String(),
		OccurredAt:    tx.OccurredAt,
		RecordedAt:    tx.RecordedAt,
		RecordedBy:    tx.RecordedBy,
		Note:          tx.Note,
		InvoiceRef:    tx.InvoiceRef,
		OrderRef:      tx.OrderRef,
		BalanceBefore: tx.BalanceBefore.String(),
		BalanceAfter:  tx.BalanceAfter.String(),
	}
	if tx.CounterAccountID != nil {
		s := tx.CounterAccountID.String()
		resp.CounterAccountID = &s
	}
	if tx.ReversalOf != nil {
		s := tx.ReversalOf.String()
		resp.ReversalOf = &s
	}
	return resp
}

func toTransactionViewResponse(view ledgerapp.TransactionView) TransactionResponse {
	resp := toTransactionResponse(view.Transaction)
	resp.AccountName = view.AccountName
	resp.CounterAccountName = view.CounterAccountName
	return resp
}

func toTransactionViewResponses(views []ledgerapp.TransactionView) []TransactionResponse {
	out := make([]TransactionResponse, len(views))
	for i, v := range views {
		out[i] = toTransactionViewResponse(v)
	}
	return out
}

// LedgerResultResponse is the outcome of a ledger write: the appended
// transaction plus the touched account balances
type LedgerResultResponse struct {
	Transaction    TransactionResponse `json:"transaction"`
	Account        AccountResponse     `json:"account"`
	CounterAccount *AccountResponse    `json:"counter_account,omitempty"`
}

func toLedgerResultResponse(result *ledgerapp.Result) LedgerResultResponse {
	resp := LedgerResultResponse{
		Transaction: toTransactionResponse(result.Transaction),
		Account:     toAccountResponse(result.Account),
	}
	if result.CounterAccount != nil {
		counter := toAccountResponse(result.CounterAccount)
		resp.CounterAccount = &counter
	}
	return resp
}

// StatementLineResponse is one statement entry with the running balance
type StatementLineResponse struct {
	Transaction    TransactionResponse `json:"transaction"`
	RunningBalance string              `json:"running_balance"`
}

// StatementResponse is an account statement with the drift check result
type StatementResponse struct {
	Account         AccountResponse         `json:"account"`
	From            *time.Time              `json:"from,omitempty"`
	To              *time.Time              `json:"to,omitempty"`
	Lines           []StatementLineResponse `json:"lines"`
	ComputedBalance string                  `json:"computed_balance"`
	Drift           string                  `json:"drift"`
	Consistent      bool                    `json:"consistent"`
}

func toStatementResponse(st *ledgerapp.Statement) StatementResponse {
	lines := make([]StatementLineResponse, len(st.Lines))
	for i, line := range st.Lines {
		lines[i] = StatementLineResponse{
			Transaction:    toTransactionViewResponse(line.Transaction),
			RunningBalance: line.RunningBalance.String(),
		}
	}
	return StatementResponse{
		Account:         toAccountResponse(st.Account),
		From:            st.From,
		To:              st.To,
		Lines:           lines,
		ComputedBalance: st.ComputedBalance.String(),
		Drift:           st.Drift.String(),
		Consistent:      st.Consistent,
	}
}

// parseOptionalUUID parses an optional query value into a *uuid.UUID
func parseOptionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseOptionalTime parses an optional RFC 3339 query value
func parseOptionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
