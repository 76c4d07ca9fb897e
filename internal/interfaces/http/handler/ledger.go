package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/resto/backoffice/internal/application/ledger"
	"github.com/resto/backoffice/internal/interfaces/http/dto"
)

// LedgerHandler handles the ledger write endpoints. Every endpoint
// appends exactly one transaction (reversals included); balances are
// never edited directly.
type LedgerHandler struct {
	BaseHandler
	engine *ledgerapp.Engine
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(engine *ledgerapp.Engine) *LedgerHandler {
	return &LedgerHandler{engine: engine}
}

// DepositRequest is the request body for recording a deposit
type DepositRequest struct {
	AccountID      string `json:"account_id" binding:"required,uuid"`
	Amount         string `json:"amount" binding:"required"`
	OccurredAt     string `json:"occurred_at"`
	Note           string `json:"note" binding:"max=500"`
	IdempotencyKey string `json:"idempotency_key" binding:"max=100"`
}

// TransferRequest is the request body for recording a transfer
type TransferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string `json:"to_account_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required"`
	OccurredAt    string `json:"occurred_at"`
	Note          string `json:"note" binding:"max=500"`
}

// ExpenseRequest is the request body for recording an expense
type ExpenseRequest struct {
	AccountID  string `json:"account_id" binding:"required,uuid"`
	Amount     string `json:"amount" binding:"required"`
	OccurredAt string `json:"occurred_at"`
	Note       string `json:"note" binding:"max=500"`
}

// PurchasePaymentRequest is the request body for paying a purchase invoice
type PurchasePaymentRequest struct {
	AccountID  string `json:"account_id" binding:"required,uuid"`
	Amount     string `json:"amount" binding:"required"`
	InvoiceRef string `json:"invoice_ref" binding:"required,max=50"`
	OccurredAt string `json:"occurred_at"`
	Note       string `json:"note" binding:"max=500"`
}

// SaleReceiptRequest is the request body for recording sale takings
type SaleReceiptRequest struct {
	AccountID  string `json:"account_id" binding:"required,uuid"`
	Amount     string `json:"amount" binding:"required"`
	OrderRef   string `json:"order_ref" binding:"max=50"`
	OccurredAt string `json:"occurred_at"`
	Note       string `json:"note" binding:"max=500"`
}

// parseAmount parses a decimal amount from its string form
func (h *LedgerHandler) parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		h.Error(c, 400, dto.ErrCodeBadRequest, "Invalid amount: "+raw)
		return decimal.Zero, false
	}
	return amount, true
}

// parseOccurredAt parses the business timestamp, defaulting to now
func (h *LedgerHandler) parseOccurredAt(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Now(), true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.Error(c, 400, dto.ErrCodeBadRequest, "Invalid occurred_at, expected RFC 3339: "+raw)
		return time.Time{}, false
	}
	return t, true
}

// Deposit handles POST /ledger/deposits
func (h *LedgerHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	amount, ok := h.parseAmount(c, req.Amount)
	if !ok {
		return
	}
	occurredAt, ok := h.parseOccurredAt(c, req.OccurredAt)
	if !ok {
		return
	}

	result, err := h.engine.RecordDeposit(c.Request.Context(), ledgerapp.DepositRequest{
		AccountID:      uuid.MustParse(req.AccountID),
		Amount:         amount,
		OccurredAt:     occurredAt,
		Note:           req.Note,
		Actor:          getActor(c),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLedgerResultResponse(result))
}

// Transfer handles POST /ledger/transfers
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	amount, ok := h.parseAmount(c, req.Amount)
	if !ok {
		return
	}
	occurredAt, ok := h.parseOccurredAt(c, req.OccurredAt)
	if !ok {
		return
	}

	result, err := h.engine.RecordTransfer(c.Request.Context(), ledgerapp.TransferRequest{
		FromAccountID: uuid.MustParse(req.FromAccountID),
		ToAccountID:   uuid.MustParse(req.ToAccountID),
		Amount:        amount,
		OccurredAt:    occurredAt,
		Note:          req.Note,
		Actor:         getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLedgerResultResponse(result))
}

// Expense handles POST /ledger/expenses
func (h *LedgerHandler) Expense(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	amount, ok := h.parseAmount(c, req.Amount)
	if !ok {
		return
	}
	occurredAt, ok := h.parseOccurredAt(c, req.OccurredAt)
	if !ok {
		return
	}

	result, err := h.engine.RecordExpense(c.Request.Context(), ledgerapp.ExpenseRequest{
		AccountID:  uuid.MustParse(req.AccountID),
		Amount:     amount,
		OccurredAt: occurredAt,
		Note:       req.Note,
		Actor:      getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLedgerResultResponse(result))
}

// PurchasePayment handles POST /ledger/purchase-payments
func (h *LedgerHandler) PurchasePayment(c *gin.Context) {
	var req PurchasePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	amount, ok := h.parseAmount(c, req.Amount)
	if !ok {
		return
	}
	occurredAt, ok := h.parseOccurredAt(c, req.OccurredAt)
	if !ok {
		return
	}

	result, err := h.engine.RecordPurchasePayment(c.Request.Context(), ledgerapp.PurchasePaymentRequest{
		AccountID:  uuid.MustParse(req.AccountID),
		Amount:     amount,
		InvoiceRef: req.InvoiceRef,
		OccurredAt: occurredAt,
		Note:       req.Note,
		Actor:      getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLedgerResultResponse(result))
}

// SaleReceipt handles POST /ledger/sale-receipts
func (h *LedgerHandler) SaleReceipt(c *gin.Context) {
	var req SaleReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	amount, ok := h.parseAmount(c, req.Amount)
	if !ok {
		return
	}
	occurredAt, ok := h.parseOccurredAt(c, req.OccurredAt)
	if !ok {
		return
	}

	result, err := h.engine.RecordSaleReceipt(c.Request.Context(), ledgerapp.SaleReceiptRequest{
		AccountID:  uuid.MustParse(req.AccountID),
		Amount:     amount,
		OrderRef:   req.OrderRef,
		OccurredAt: occurredAt,
		Note:       req.Note,
		Actor:      getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLedgerResultResponse(result))
}

// Reverse handles POST /ledger/transactions/:id/reverse. The original
// entry stays in the log untouched; a compensating entry is appended.
func (h *LedgerHandler) Reverse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	result, err := h.engine.ReverseTransaction(c.Request.Context(), id, getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLedgerResultResponse(result))
}
