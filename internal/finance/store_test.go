package finance

import (
	"prism/internal/models"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store for exercising the rules without a database.
type memStore struct {
	accounts     map[string]*models.Account
	categories   map[string]*models.Category
	budgets      []models.Budget
	transactions []models.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   map[string]*models.Account{},
		categories: map[string]*models.Category{},
	}
}

func (s *memStore) addAccount(id, owner, name string) *models.Account {
	a := &models.Account{Base: models.Base{ID: id}, UserID: owner, Name: name, Type: models.AccountTypeChecking, IsActive: true}
	s.accounts[id] = a
	return a
}

func (s *memStore) addCategory(id, owner, name string, parentID *string) *models.Category {
	c := &models.Category{Base: models.Base{ID: id}, UserID: owner, Name: name, Type: models.CategoryTypeExpense, ParentID: parentID, IsActive: true}
	s.categories[id] = c
	return c
}

func (s *memStore) FindAccount(id string) (*models.Account, error) {
	return s.accounts[id], nil
}

func (s *memStore) FindCategory(id string) (*models.Category, error) {
	return s.categories[id], nil
}

func (s *memStore) AccountNameExists(ownerID, name, excludeID string) (bool, error) {
	for _, a := range s.accounts {
		if a.UserID == ownerID && a.Name == name && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CategoryNameExists(ownerID, name string, parentID *string, excludeID string) (bool, error) {
	for _, c := range s.categories {
		if c.UserID != ownerID || c.Name != name || c.ID == excludeID {
			continue
		}
		if (c.ParentID == nil) != (parentID == nil) {
			continue
		}
		if c.ParentID == nil || *c.ParentID == *parentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) BudgetRangeExists(ownerID, categoryID string, start, end models.Date, excludeID string) (bool, error) {
	for _, b := range s.budgets {
		if b.UserID == ownerID && b.CategoryID == categoryID && b.ID != excludeID &&
			b.StartDate.Equal(start) && b.EndDate.Equal(end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ActiveBudgetOverlaps(ownerID, categoryID string, start, end models.Date, excludeID string) (bool, error) {
	for _, b := range s.budgets {
		if b.UserID == ownerID && b.CategoryID == categoryID && b.ID != excludeID && b.IsActive &&
			Overlaps(b.StartDate, b.EndDate, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CountAccountTransactions(accountID string) (int64, error) {
	var n int64
	for _, t := range s.transactions {
		if t.AccountID == accountID || (t.TransferToID != nil && *t.TransferToID == accountID) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountCategoryTransactions(categoryID string) (int64, error) {
	var n int64
	for _, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountSubcategories(categoryID string) (int64, error) {
	var n int64
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CategoryAmounts(ownerID, categoryID string, start, end models.Date) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, t := range s.transactions {
		if t.UserID == ownerID && t.CategoryID != nil && *t.CategoryID == categoryID &&
			!t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t.Amount)
		}
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
