package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "prism/internal/errors"
	"prism/internal/finance"
	"prism/internal/models"
	"prism/internal/pagination"
)

var accountOrderings = []string{"name", "balance", "created_at"}

// accountService handles account-related business logic.
type accountService struct {
	db    *gorm.DB
	store *recordStore
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db, store: newRecordStore(db)}
}

var errDuplicateAccountName = apperrors.WithMessage(apperrors.ErrDuplicateName, "You already have an account with this name")

// CreateAccount creates a new account for a user
func (s *accountService) CreateAccount(userID string, in AccountInput) (*models.Account, error) {
	account := &models.Account{
		UserID:   userID,
		Name:     in.Name,
		Type:     in.Type,
		Balance:  in.Balance,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	if err := finance.ValidateAccount(s.store, userID, account); err != nil {
		return nil, err
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, dbError(err, errDuplicateAccountName)
	}
	return account, nil
}

// GetUserAccounts retrieves a filtered, paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, filter AccountFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		base = base.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.
		Scopes(pagination.Ordering(filter.Ordering, accountOrderings, "name ASC"), pagination.Paginate(page)).
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount applies a partial update and revalidates the account.
func (s *accountService) UpdateAccount(userID, accountID string, patch AccountPatch) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	patch.Apply(account)
	if err := finance.ValidateAccount(s.store, userID, account); err != nil {
		return nil, err
	}

	if err := s.db.Select("name", "type", "balance", "is_active").Updates(account).Error; err != nil {
		return nil, dbError(err, errDuplicateAccountName)
	}
	return account, nil
}

// DeleteAccount removes an account that no transaction references. Goals
// linked to it are unlinked.
func (s *accountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}
	if err := finance.CheckAccountDeletable(s.store, account.ID); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Goal{}).
			Where("linked_account_id = ?", account.ID).
			Update("linked_account_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(account).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetAccountSummary totals all of the user's accounts.
func (s *accountService) GetAccountSummary(userID string) (*finance.AccountSummary, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary := finance.SummarizeAccounts(accounts)
	return &summary, nil
}
