package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// AccountSortFields contains allowed sort fields for ledger accounts
var AccountSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"number":     true,
	"balance":    true,
	"status":     true,
}

// TransactionSortFields contains allowed sort fields for ledger transactions
var TransactionSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"kind":        true,
	"account_id":  true,
	"amount":      true,
	"occurred_at": true,
	"recorded_at": true,
}
