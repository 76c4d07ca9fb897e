package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/resto/backoffice/internal/application/ledger"
	"github.com/resto/backoffice/internal/domain/ledger"
	"github.com/resto/backoffice/internal/domain/shared"
	"github.com/resto/backoffice/internal/interfaces/http/dto"
)

// AccountHandler handles account management endpoints
type AccountHandler struct {
	BaseHandler
	accountService *ledgerapp.AccountService
	queryService   *ledgerapp.QueryService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *ledgerapp.AccountService, queryService *ledgerapp.QueryService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		queryService:   queryService,
	}
}

// CreateAccountRequest is the request body for creating an account
type CreateAccountRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	Number         string `json:"number" binding:"required,max=50"`
	Note           string `json:"note" binding:"max=500"`
	OpeningBalance string `json:"opening_balance"`
	AllowOverdraft *bool  `json:"allow_overdraft"`
}

// UpdateAccountRequest is the request body for updating account details
type UpdateAccountRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	Number         string `json:"number" binding:"required,max=50"`
	Note           string `json:"note" binding:"max=500"`
	AllowOverdraft *bool  `json:"allow_overdraft"`
}

// AccountListFilter holds query options for listing accounts
type AccountListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=active frozen"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create handles POST /ledger/accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			h.Error(c, 400, dto.ErrCodeBadRequest, "Invalid opening balance: "+req.OpeningBalance)
			return
		}
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), ledgerapp.CreateAccountRequest{
		Name:           req.Name,
		Number:         req.Number,
		Note:           req.Note,
		OpeningBalance: opening,
		AllowOverdraft: req.AllowOverdraft,
		Actor:          getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toAccountResponse(account))
}

// Get handles GET /ledger/accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.queryService.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAccountResponse(account))
}

// List handles GET /ledger/accounts
func (h *AccountHandler) List(c *gin.Context) {
	var filter AccountListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	appFilter := ledger.AccountFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
	}
	if filter.Status != "" {
		status := ledger.AccountStatus(filter.Status)
		appFilter.Status = &status
	}

	page, err := h.queryService.ListAccounts(c.Request.Context(), appFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toAccountResponses(page.Items), page.Total, page.Page, page.PageSize)
}

// Update handles PUT /ledger/accounts/:id
func (h *AccountHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), id, ledgerapp.UpdateAccountRequest{
		Name:           req.Name,
		Number:         req.Number,
		Note:           req.Note,
		AllowOverdraft: req.AllowOverdraft,
		Actor:          getActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAccountResponse(account))
}

// Delete handles DELETE /ledger/accounts/:id. Accounts with any
// transaction history cannot be deleted.
func (h *AccountHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), id, getActor(c)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Unfreeze handles POST /ledger/accounts/:id/unfreeze. Freezing happens
// only from the inside, when a compensation fails; unfreezing is a
// deliberate operator action after the books have been checked.
func (h *AccountHandler) Unfreeze(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.accountService.UnfreezeAccount(c.Request.Context(), id, getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAccountResponse(account))
}
