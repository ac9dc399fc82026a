package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "prism/internal/errors"
	"prism/internal/finance"
	"prism/internal/models"
	"prism/internal/pagination"
)

var transactionOrderings = []string{"date", "amount", "created_at"}

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
	recentWindowDays   = 30
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db    *gorm.DB
	store *recordStore
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db, store: newRecordStore(db)}
}

func newTransactionView(t models.Transaction) TransactionView {
	return TransactionView{
		Transaction: t,
		Expense:     t.IsExpense(),
		Income:      t.IsIncome(),
		Transfer:    t.IsTransfer(),
	}
}

func newTransactionViews(txs []models.Transaction) []TransactionView {
	views := make([]TransactionView, len(txs))
	for i := range txs {
		views[i] = newTransactionView(txs[i])
	}
	return views
}

func withTransactionRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Account").Preload("Category").Preload("TransferTo")
}

// filtered applies the list filters shared by listing and summary.
func (s *transactionService) filtered(userID string, filter TransactionFilter) *gorm.DB {
	q := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.StartDate != nil {
		q = q.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("date <= ?", *filter.EndDate)
	}
	if filter.AccountID != nil {
		q = q.Where("account_id = ?", *filter.AccountID)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsRecurring != nil {
		q = q.Where("is_recurring = ?", *filter.IsRecurring)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where("LOWER(description) LIKE ? OR LOWER(notes) LIKE ?", pattern, pattern)
	}
	return q
}

// CreateTransaction records a transaction. Account balances are not touched.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*TransactionView, error) {
	tx := &models.Transaction{
		UserID:             userID,
		AccountID:          in.AccountID,
		CategoryID:         in.CategoryID,
		Amount:             in.Amount,
		Description:        in.Description,
		Date:               in.Date,
		Notes:              in.Notes,
		TransferToID:       in.TransferToID,
		IsRecurring:        in.IsRecurring,
		RecurringFrequency: in.RecurringFrequency,
	}
	if err := finance.ValidateTransaction(s.store, userID, tx); err != nil {
		return nil, err
	}

	if err := s.db.Create(tx).Error; err != nil {
		return nil, dbError(err, nil)
	}
	return s.GetTransactionByID(userID, tx.ID)
}

// GetUserTransactions retrieves a filtered, paginated list of transactions,
// newest first unless another ordering is requested.
func (s *transactionService) GetUserTransactions(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[TransactionView], error) {
	page.Defaults()

	base := s.filtered(userID, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txs []models.Transaction
	if err := withTransactionRelations(base).
		Scopes(pagination.Ordering(filter.Ordering, transactionOrderings, "date DESC, created_at DESC"), pagination.Paginate(page)).
		Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(newTransactionViews(txs), page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *transactionService) findTransaction(userID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := withTransactionRelations(s.db).
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*TransactionView, error) {
	tx, err := s.findTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}
	view := newTransactionView(*tx)
	return &view, nil
}

// UpdateTransaction applies a partial update and revalidates the whole record.
func (s *transactionService) UpdateTransaction(userID, transactionID string, patch TransactionPatch) (*TransactionView, error) {
	tx, err := s.findTransaction(userID, transactionID)
	if err != nil {
		return nil, err
	}

	patch.Apply(tx)
	if err := finance.ValidateTransaction(s.store, userID, tx); err != nil {
		return nil, err
	}

	if err := s.db.Model(tx).
		Select("account_id", "category_id", "amount", "description", "date", "notes",
			"transfer_to_id", "is_recurring", "recurring_frequency").
		Updates(tx).Error; err != nil {
		return nil, dbError(err, nil)
	}
	return s.GetTransactionByID(userID, tx.ID)
}

// DeleteTransaction deletes a transaction
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	tx, err := s.findTransaction(userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.Transaction{}, "id = ?", tx.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetTransactionSummary totals the transactions matching filter.
func (s *transactionService) GetTransactionSummary(userID string, filter TransactionFilter) (*finance.TransactionSummary, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var txs []models.Transaction
	if err := s.filtered(userID, filter).Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary := finance.SummarizeTransactions(txs)
	return &summary, nil
}

// GetRecentTransactions returns up to limit transactions from the last 30 days.
func (s *transactionService) GetRecentTransactions(userID string, limit int) ([]TransactionView, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	limit = min(limit, maxRecentLimit)

	since := models.Today().AddDays(-recentWindowDays)

	var txs []models.Transaction
	if err := withTransactionRelations(s.db).
		Where("user_id = ? AND date >= ?", userID, since).
		Order("date DESC, created_at DESC").
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return newTransactionViews(txs), nil
}
