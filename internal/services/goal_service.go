package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "prism/internal/errors"
	"prism/internal/finance"
	"prism/internal/models"
	"prism/internal/pagination"
)

var goalOrderings = []string{"name", "target_amount", "target_date", "created_at"}

var goalColumns = []string{
	"name", "description", "type", "target_amount", "current_amount", "target_date",
	"linked_account_id", "is_active", "is_completed", "completed_at",
}

// goalService handles goal-related business logic.
type goalService struct {
	db    *gorm.DB
	store *recordStore
	now   func() time.Time
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB) GoalServicer {
	return &goalService{db: db, store: newRecordStore(db), now: time.Now}
}

func newGoalView(g models.Goal) GoalView {
	return GoalView{Goal: g, GoalStats: finance.GoalProgress(&g)}
}

func newGoalViews(goals []models.Goal) []GoalView {
	views := make([]GoalView, len(goals))
	for i := range goals {
		views[i] = newGoalView(goals[i])
	}
	return views
}

// CreateGoal creates a goal. A goal created at or above its target starts
// out completed.
func (s *goalService) CreateGoal(userID string, in GoalInput) (*GoalView, error) {
	goal := &models.Goal{
		UserID:          userID,
		Name:            in.Name,
		Description:     in.Description,
		Type:            in.Type,
		TargetAmount:    in.TargetAmount,
		CurrentAmount:   in.CurrentAmount,
		TargetDate:      in.TargetDate,
		LinkedAccountID: in.LinkedAccountID,
		IsActive:        in.IsActive == nil || *in.IsActive,
	}
	if err := finance.ValidateGoal(s.store, userID, goal); err != nil {
		return nil, err
	}
	if err := finance.CheckGoalCeiling(goal); err != nil {
		return nil, err
	}
	finance.Reconcile(goal, s.now())

	if err := s.db.Create(goal).Error; err != nil {
		return nil, dbError(err, nil)
	}
	return s.GetGoalByID(userID, goal.ID)
}

// GetUserGoals retrieves a filtered, paginated list of goals for a user.
func (s *goalService) GetUserGoals(userID string, filter GoalFilter, page pagination.PageRequest) (*pagination.PageResponse[GoalView], error) {
	page.Defaults()

	base := s.db.Model(&models.Goal{}).Where("user_id = ?", userID)
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsCompleted != nil {
		base = base.Where("is_completed = ?", *filter.IsCompleted)
	}
	if filter.LinkedAccountID != nil {
		base = base.Where("linked_account_id = ?", *filter.LinkedAccountID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		base = base.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.Goal
	if err := base.Preload("LinkedAccount").
		Scopes(pagination.Ordering(filter.Ordering, goalOrderings, "created_at DESC"), pagination.Paginate(page)).
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(newGoalViews(goals), page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *goalService) findGoal(db *gorm.DB, userID, goalID string) (*models.Goal, error) {
	var goal models.Goal
	if err := db.Preload("LinkedAccount").Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// GetGoalByID retrieves a goal with its progress for a specific user.
func (s *goalService) GetGoalByID(userID, goalID string) (*GoalView, error) {
	goal, err := s.findGoal(s.db, userID, goalID)
	if err != nil {
		return nil, err
	}
	view := newGoalView(*goal)
	return &view, nil
}

// UpdateGoal applies a partial update and reconciles completion. The
// ceiling on current amount applies only when the patch writes an amount.
func (s *goalService) UpdateGoal(userID, goalID string, patch GoalPatch) (*GoalView, error) {
	goal, err := s.findGoal(s.db, userID, goalID)
	if err != nil {
		return nil, err
	}

	patch.Apply(goal)
	if err := finance.ValidateGoal(s.store, userID, goal); err != nil {
		return nil, err
	}
	if patch.TouchesAmounts() {
		if err := finance.CheckGoalCeiling(goal); err != nil {
			return nil, err
		}
	}
	finance.Reconcile(goal, s.now())

	if err := s.db.Model(goal).Select(goalColumns).Updates(goal).Error; err != nil {
		return nil, dbError(err, nil)
	}
	return s.GetGoalByID(userID, goal.ID)
}

// DeleteGoal deletes a goal.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	goal, err := s.findGoal(s.db, userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.Goal{}, "id = ?", goal.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// UpdateGoalProgress adds a signed delta to the goal's current amount. The
// result may pass the target but must stay within zero and the maximum.
func (s *goalService) UpdateGoalProgress(userID, goalID string, delta decimal.Decimal) (*GoalView, error) {
	var goal *models.Goal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		goal, err = s.findGoal(tx, userID, goalID)
		if err != nil {
			return err
		}
		if err := finance.AddProgress(goal, delta, s.now()); err != nil {
			return err
		}
		return tx.Model(goal).Select("current_amount", "is_completed", "completed_at").Updates(goal).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	view := newGoalView(*goal)
	return &view, nil
}

func (s *goalService) listGoals(userID string, where string, args ...any) ([]models.Goal, error) {
	var goals []models.Goal
	if err := s.db.Preload("LinkedAccount").
		Where("user_id = ?", userID).
		Where(where, args...).
		Order("created_at DESC").Order("id DESC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goals, nil
}

// GetActiveGoals returns active goals that are not yet completed.
func (s *goalService) GetActiveGoals(userID string) ([]GoalView, error) {
	goals, err := s.listGoals(userID, "is_active = ? AND is_completed = ?", true, false)
	if err != nil {
		return nil, err
	}
	return newGoalViews(goals), nil
}

// GetCompletedGoals returns completed goals.
func (s *goalService) GetCompletedGoals(userID string) ([]GoalView, error) {
	goals, err := s.listGoals(userID, "is_completed = ?", true)
	if err != nil {
		return nil, err
	}
	return newGoalViews(goals), nil
}

// GetNearTargetGoals returns active goals at or above 80% progress that are
// not yet completed.
func (s *goalService) GetNearTargetGoals(userID string) ([]GoalView, error) {
	goals, err := s.listGoals(userID, "is_active = ? AND is_completed = ?", true, false)
	if err != nil {
		return nil, err
	}

	near := make([]GoalView, 0, len(goals))
	for i := range goals {
		if finance.NearTarget(&goals[i]) {
			near = append(near, newGoalView(goals[i]))
		}
	}
	return near, nil
}

// GetGoalSummary totals all of the user's goals.
func (s *goalService) GetGoalSummary(userID string) (*finance.GoalSummary, error) {
	var goals []models.Goal
	if err := s.db.Where("user_id = ?", userID).Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary := finance.SummarizeGoals(goals)
	return &summary, nil
}
