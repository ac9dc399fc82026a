package services

import (
	"errors"

	apperrors "prism/internal/errors"
	"prism/internal/finance"
	"prism/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// recordStore answers the finance package's lookups with GORM queries.
type recordStore struct {
	db *gorm.DB
}

var (
	_ finance.Store         = (*recordStore)(nil)
	_ finance.ExpenseSource = (*recordStore)(nil)
	_ finance.ChildLister   = (*recordStore)(nil)
)

func newRecordStore(db *gorm.DB) *recordStore {
	return &recordStore{db: db}
}

// withDB returns a store bound to db, typically a transaction handle.
func (s *recordStore) withDB(db *gorm.DB) *recordStore {
	return &recordStore{db: db}
}

func (s *recordStore) FindAccount(id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (s *recordStore) FindCategory(id string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (s *recordStore) exists(q *gorm.DB, excludeID string) (bool, error) {
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *recordStore) AccountNameExists(ownerID, name, excludeID string) (bool, error) {
	q := s.db.Model(&models.Account{}).Where("user_id = ? AND name = ?", ownerID, name)
	return s.exists(q, excludeID)
}

func (s *recordStore) CategoryNameExists(ownerID, name string, parentID *string, excludeID string) (bool, error) {
	q := s.db.Model(&models.Category{}).Where("user_id = ? AND name = ?", ownerID, name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	return s.exists(q, excludeID)
}

func (s *recordStore) BudgetRangeExists(ownerID, categoryID string, start, end models.Date, excludeID string) (bool, error) {
	q := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND start_date = ? AND end_date = ?", ownerID, categoryID, start, end)
	return s.exists(q, excludeID)
}

// ActiveBudgetOverlaps uses inclusive bounds: two ranges overlap when each
// starts on or before the other ends.
func (s *recordStore) ActiveBudgetOverlaps(ownerID, categoryID string, start, end models.Date, excludeID string) (bool, error) {
	q := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND is_active = ?", ownerID, categoryID, true).
		Where("start_date <= ? AND end_date >= ?", end, start)
	return s.exists(q, excludeID)
}

func (s *recordStore) CountAccountTransactions(accountID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Transaction{}).
		Where("account_id = ? OR transfer_to_id = ?", accountID, accountID).
		Count(&count).Error
	return count, err
}

func (s *recordStore) CountCategoryTransactions(categoryID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (s *recordStore) CountSubcategories(categoryID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&count).Error
	return count, err
}

// CategoryAmounts loads amounts rather than summing in SQL so the total is
// computed with exact decimals on every driver.
func (s *recordStore) CategoryAmounts(ownerID, categoryID string, start, end models.Date) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND category_id = ? AND date >= ? AND date <= ? AND amount < 0", ownerID, categoryID, start, end).
		Pluck("amount", &amounts).Error
	return amounts, err
}

func (s *recordStore) ActiveChildren(parentID string) ([]models.Category, error) {
	var children []models.Category
	err := s.db.Where("parent_id = ? AND is_active = ?", parentID, true).Order("name ASC").Find(&children).Error
	return children, err
}

// dbError maps a write failure onto an AppError. Unique constraint
// violations become dup so racing writers still see a domain error.
func dbError(err error, dup *apperrors.AppError) error {
	if dup != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return dup
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
