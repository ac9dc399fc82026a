package finance

import "prism/internal/models"

// AccountFinder looks up an account by ID regardless of owner.
// A missing account is returned as (nil, nil).
type AccountFinder interface {
	FindAccount(id string) (*models.Account, error)
}

// CategoryFinder looks up a category by ID regardless of owner.
// A missing category is returned as (nil, nil).
type CategoryFinder interface {
	FindCategory(id string) (*models.Category, error)
}

// Store is the read-only view of the record store used by validation.
// Every excludeID parameter names the record being updated ("" on create).
type Store interface {
	AccountFinder
	CategoryFinder

	AccountNameExists(ownerID, name, excludeID string) (bool, error)
	CategoryNameExists(ownerID, name string, parentID *string, excludeID string) (bool, error)
	BudgetRangeExists(ownerID, categoryID string, start, end models.Date, excludeID string) (bool, error)
	ActiveBudgetOverlaps(ownerID, categoryID string, start, end models.Date, excludeID string) (bool, error)

	CountAccountTransactions(accountID string) (int64, error)
	CountCategoryTransactions(categoryID string) (int64, error)
	CountSubcategories(categoryID string) (int64, error)
}
