package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/resto/backoffice/internal/application/ledger"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
)

// QueryHandler handles the read-only ledger endpoints
type QueryHandler struct {
	BaseHandler
	queryService *ledgerapp.QueryService
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(queryService *ledgerapp.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// TransactionListFilter holds query options for listing transactions
type TransactionListFilter struct {
	AccountID    string `form:"account_id" binding:"omitempty,uuid"`
	Kind         string `form:"kind" binding:"omitempty,oneof=DEPOSIT TRANSFER EXPENSE PURCHASE_PAYMENT SALE_RECEIPT"`
	OccurredFrom string `form:"occurred_from"`
	OccurredTo   string `form:"occurred_to"`
	Search       string `form:"search"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1"`
}

// ListTransactions handles GET /ledger/transactions
func (h *QueryHandler) ListTransactions(c *gin.Context) {
	var filter TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	accountID, err := parseOptionalUUID(filter.AccountID)
	if err != nil {
		h.BadRequest(c, "Invalid account_id format")
		return
	}
	from, err := parseOptionalTime(filter.OccurredFrom)
	if err != nil {
		h.BadRequest(c, "Invalid occurred_from, expected RFC 3339")
		return
	}
	to, err := parseOptionalTime(filter.OccurredTo)
	if err != nil {
		h.BadRequest(c, "Invalid occurred_to, expected RFC 3339")
		return
	}

	appFilter := ledger.TransactionFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		AccountID:    accountID,
		OccurredFrom: from,
		OccurredTo:   to,
	}
	if filter.Kind != "" {
		kind := ledger.TransactionKind(filter.Kind)
		appFilter.Kind = &kind
	}

	page, err := h.queryService.ListTransactions(c.Request.Context(), appFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toTransactionViewResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// GetTransaction handles GET /ledger/transactions/:id
func (h *QueryHandler) GetTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	view, err := h.queryService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTransactionViewResponse(*view))
}

// Statement handles GET /ledger/accounts/:id/statement. The statement
// replays the account's full history, so it also reports whether the
// stored balance still matches the log.
func (h *QueryHandler) Statement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	from, err := parseOptionalTime(c.Query("from"))
	if err != nil {
		h.BadRequest(c, "Invalid from, expected RFC 3339")
		return
	}
	to, err := parseOptionalTime(c.Query("to"))
	if err != nil {
		h.BadRequest(c, "Invalid to, expected RFC 3339")
		return
	}

	statement, err := h.queryService.AccountStatement(c.Request.Context(), id, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStatementResponse(statement))
}
