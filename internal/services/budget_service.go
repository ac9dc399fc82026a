package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "prism/internal/errors"
	"prism/internal/finance"
	"prism/internal/models"
	"prism/internal/pagination"
)

var budgetOrderings = []string{"name", "amount", "start_date", "created_at"}

// budgetService handles budget-related business logic.
type budgetService struct {
	db    *gorm.DB
	store *recordStore
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db, store: newRecordStore(db)}
}

var errDuplicateBudget = apperrors.WithMessage(apperrors.ErrDuplicateName, "A budget for this category and date range already exists")

// view computes spending for b against the user's expenses in its range.
func (s *budgetService) view(b models.Budget) (BudgetView, error) {
	spent, err := finance.SpentAmount(s.store, &b)
	if err != nil {
		return BudgetView{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return BudgetView{Budget: b, BudgetStats: finance.BudgetProgress(b.Amount, spent)}, nil
}

func (s *budgetService) views(budgets []models.Budget) ([]BudgetView, error) {
	views := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		v, err := s.view(b)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// CreateBudget creates a new budget for a category.
func (s *budgetService) CreateBudget(userID string, in BudgetInput) (*BudgetView, error) {
	budget := &models.Budget{
		UserID:     userID,
		CategoryID: in.CategoryID,
		Name:       in.Name,
		Amount:     in.Amount,
		Period:     in.Period,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		IsActive:   in.IsActive == nil || *in.IsActive,
	}
	if err := finance.ValidateBudget(s.store, userID, budget); err != nil {
		return nil, err
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, dbError(err, errDuplicateBudget)
	}
	return s.GetBudgetByID(userID, budget.ID)
}

// GetUserBudgets retrieves a filtered, paginated list of budgets for a user.
func (s *budgetService) GetUserBudgets(userID string, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[BudgetView], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Period != nil {
		base = base.Where("period = ?", *filter.Period)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.StartDate != nil {
		base = base.Where("start_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		base = base.Where("end_date <= ?", *filter.EndDate)
	}
	if filter.Search != "" {
		base = base.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").
		Scopes(pagination.Ordering(filter.Ordering, budgetOrderings, "start_date DESC"), pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views, err := s.views(budgets)
	if err != nil {
		return nil, err
	}
	result := pagination.NewPageResponse(views, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *budgetService) findBudget(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetBudgetByID retrieves a budget with its spending for a specific user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*BudgetView, error) {
	budget, err := s.findBudget(userID, budgetID)
	if err != nil {
		return nil, err
	}
	view, err := s.view(*budget)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateBudget applies a partial update. Range, overlap and uniqueness are
// checked against the merged record.
func (s *budgetService) UpdateBudget(userID, budgetID string, patch BudgetPatch) (*BudgetView, error) {
	budget, err := s.findBudget(userID, budgetID)
	if err != nil {
		return nil, err
	}

	patch.Apply(budget)
	if err := finance.ValidateBudget(s.store, userID, budget); err != nil {
		return nil, err
	}

	if err := s.db.Model(budget).
		Select("category_id", "name", "amount", "period", "start_date", "end_date", "is_active").
		Updates(budget).Error; err != nil {
		return nil, dbError(err, errDuplicateBudget)
	}
	return s.GetBudgetByID(userID, budget.ID)
}

// DeleteBudget deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.findBudget(userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.Budget{}, "id = ?", budget.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *budgetService) activeBudgets(userID string, scopes ...func(*gorm.DB) *gorm.DB) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND is_active = ?", userID, true).
		Scopes(scopes...).
		Order("start_date DESC").Order("id DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// GetCurrentBudgets returns the active budgets whose range includes today.
func (s *budgetService) GetCurrentBudgets(userID string) ([]BudgetView, error) {
	today := models.Today()
	budgets, err := s.activeBudgets(userID, func(db *gorm.DB) *gorm.DB {
		return db.Where("start_date <= ? AND end_date >= ?", today, today)
	})
	if err != nil {
		return nil, err
	}
	return s.views(budgets)
}

// GetOverBudget returns the active budgets whose spending exceeds the amount.
func (s *budgetService) GetOverBudget(userID string) ([]BudgetView, error) {
	budgets, err := s.activeBudgets(userID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(budgets)
	if err != nil {
		return nil, err
	}

	over := make([]BudgetView, 0, len(views))
	for _, v := range views {
		if v.IsOverBudget {
			over = append(over, v)
		}
	}
	return over, nil
}

// GetBudgetSummary totals the user's active budgets.
func (s *budgetService) GetBudgetSummary(userID string) (*finance.BudgetSummary, error) {
	budgets, err := s.activeBudgets(userID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(budgets)
	if err != nil {
		return nil, err
	}

	lines := make([]finance.BudgetLine, len(views))
	for i, v := range views {
		lines[i] = finance.BudgetLine{Amount: v.Amount, Spent: v.SpentAmount}
	}
	summary := finance.SummarizeBudgets(lines)
	return &summary, nil
}
