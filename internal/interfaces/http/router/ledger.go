package router

import (
	"github.com/gin-gonic/gin"
	"github.com/resto/backoffice/internal/interfaces/http/handler"
)

// LedgerRoutes registers every ledger endpoint
type LedgerRoutes struct {
	accounts *handler.AccountHandler
	ledger   *handler.LedgerHandler
	queries  *handler.QueryHandler
}

// NewLedgerRoutes creates the registrar for the ledger API
func NewLedgerRoutes(accounts *handler.AccountHandler, ledger *handler.LedgerHandler, queries *handler.QueryHandler) *LedgerRoutes {
	return &LedgerRoutes{
		accounts: accounts,
		ledger:   ledger,
		queries:  queries,
	}
}

// RegisterRoutes wires the ledger endpoints into the API group
func (r *LedgerRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/ledger")

	accounts := group.Group("/accounts")
	{
		accounts.POST("", r.accounts.Create)
		accounts.GET("", r.accounts.List)
		accounts.GET("/:id", r.accounts.Get)
		accounts.PUT("/:id", r.accounts.Update)
		accounts.DELETE("/:id", r.accounts.Delete)
		accounts.POST("/:id/unfreeze", r.accounts.Unfreeze)
		accounts.GET("/:id/statement", r.queries.Statement)
	}

	group.POST("/deposits", r.ledger.Deposit)
	group.POST("/transfers", r.ledger.Transfer)
	group.POST("/expenses", r.ledger.Expense)
	group.POST("/purchase-payments", r.ledger.PurchasePayment)
	group.POST("/sale-receipts", r.ledger.SaleReceipt)

	transactions := group.Group("/transactions")
	{
		transactions.GET("", r.queries.ListTransactions)
		transactions.GET("/:id", r.queries.GetTransaction)
		transactions.POST("/:id/reverse", r.ledger.Reverse)
	}
}
