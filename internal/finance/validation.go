package finance

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	apperrors "prism/internal/errors"
	"prism/internal/models"
)

const maxNameLength = 100

var hexColorRe = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// IsHexColor reports whether s is a #RGB or #RRGGBB color.
func IsHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

func invalid(format string, args ...any) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func storeErr(err error) error {
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func normalizeName(field string, name *string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return invalid("%s is required", field)
	}
	if len(*name) > maxNameLength {
		return invalid("%s cannot exceed %d characters", field, maxNameLength)
	}
	return nil
}

// ownedAccount resolves id to an account owned by userID. Missing and foreign
// accounts are reported identically.
func ownedAccount(finder AccountFinder, userID, id, label string) (*models.Account, error) {
	account, err := finder.FindAccount(id)
	if err != nil {
		return nil, storeErr(err)
	}
	if account == nil || account.UserID != userID {
		return nil, apperrors.WithMessage(apperrors.ErrAccountNotFound, label+" not found")
	}
	return account, nil
}

func ownedCategory(finder CategoryFinder, userID, id, label string) (*models.Category, error) {
	category, err := finder.FindCategory(id)
	if err != nil {
		return nil, storeErr(err)
	}
	if category == nil || category.UserID != userID {
		return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, label+" not found")
	}
	return category, nil
}

// ValidateAccount checks a candidate account for userID and normalizes its name.
func ValidateAccount(store Store, userID string, a *models.Account) error {
	if err := normalizeName("name", &a.Name); err != nil {
		return err
	}
	if !slices.Contains(models.AccountTypes, a.Type) {
		return invalid("invalid account type %q", a.Type)
	}
	if err := ValidateAmount("balance", a.Balance); err != nil {
		return err
	}

	exists, err := store.AccountNameExists(userID, a.Name, a.ID)
	if err != nil {
		return storeErr(err)
	}
	if exists {
		return apperrors.WithMessage(apperrors.ErrDuplicateName, "You already have an account with this name")
	}
	return nil
}

// ValidateCategory checks a candidate category, including parent ownership
// and the cycle rule. An empty color is replaced by the default.
func ValidateCategory(store Store, userID string, c *models.Category) error {
	if err := normalizeName("name", &c.Name); err != nil {
		return err
	}
	if c.Type != models.CategoryTypeIncome && c.Type != models.CategoryTypeExpense {
		return invalid("invalid category type %q", c.Type)
	}
	if c.Color == "" {
		c.Color = models.DefaultCategoryColor
	}
	if !IsHexColor(c.Color) {
		return invalid("color must be a hex color like #RRGGBB")
	}

	if c.ParentID != nil {
		if _, err := ownedCategory(store, userID, *c.ParentID, "Parent category"); err != nil {
			return err
		}
		if err := CheckNoCycle(store, c.ID, c.ParentID); err != nil {
			return err
		}
	}

	exists, err := store.CategoryNameExists(userID, c.Name, c.ParentID, c.ID)
	if err != nil {
		return storeErr(err)
	}
	if exists {
		return apperrors.WithMessage(apperrors.ErrDuplicateName, "You already have a category with this name under the same parent")
	}
	return nil
}

// ValidateTransaction checks a candidate transaction. A non-recurring
// transaction has its frequency cleared.
func ValidateTransaction(store Store, userID string, t *models.Transaction) error {
	t.Description = strings.TrimSpace(t.Description)
	if t.Description == "" {
		return invalid("description is required")
	}
	if len(t.Description) > 255 {
		return invalid("description cannot exceed 255 characters")
	}
	if t.Date.IsZero() {
		return invalid("date is required")
	}
	if err := ValidateNonZero("amount", t.Amount); err != nil {
		return err
	}

	if !t.IsRecurring {
		t.RecurringFrequency = nil
	} else if t.RecurringFrequency == nil {
		return invalid("recurring_frequency is required when is_recurring is true")
	} else if !validFrequency(*t.RecurringFrequency) {
		return invalid("invalid recurring frequency %q", *t.RecurringFrequency)
	}

	if _, err := ownedAccount(store, userID, t.AccountID, "Account"); err != nil {
		return err
	}
	if t.CategoryID != nil {
		if _, err := ownedCategory(store, userID, *t.CategoryID, "Category"); err != nil {
			return err
		}
	}
	if t.TransferToID != nil {
		if _, err := ownedAccount(store, userID, *t.TransferToID, "Transfer account"); err != nil {
			return err
		}
		if *t.TransferToID == t.AccountID {
			return apperrors.ErrSameAccountTransfer
		}
		if t.CategoryID != nil {
			return apperrors.ErrInvalidTransferCategory
		}
	}
	return nil
}

func validFrequency(f models.RecurringFrequency) bool {
	switch f {
	case models.RecurringDaily, models.RecurringWeekly, models.RecurringMonthly, models.RecurringYearly:
		return true
	}
	return false
}

// ValidateBudget checks a candidate budget. The overlap rule only applies
// when the candidate is active.
func ValidateBudget(store Store, userID string, b *models.Budget) error {
	if err := normalizeName("name", &b.Name); err != nil {
		return err
	}
	if err := ValidatePositive("amount", b.Amount); err != nil {
		return err
	}
	switch b.Period {
	case models.BudgetPeriodMonthly, models.BudgetPeriodQuarterly, models.BudgetPeriodYearly:
	default:
		return invalid("invalid budget period %q", b.Period)
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return invalid("start_date and end_date are required")
	}

	if _, err := ownedCategory(store, userID, b.CategoryID, "Category"); err != nil {
		return err
	}
	if !b.EndDate.After(b.StartDate) {
		return apperrors.ErrInvalidDateRange
	}

	exists, err := store.BudgetRangeExists(userID, b.CategoryID, b.StartDate, b.EndDate, b.ID)
	if err != nil {
		return storeErr(err)
	}
	if exists {
		return apperrors.WithMessage(apperrors.ErrDuplicateName, "A budget for this category and period already exists")
	}

	if b.IsActive {
		overlaps, err := store.ActiveBudgetOverlaps(userID, b.CategoryID, b.StartDate, b.EndDate, b.ID)
		if err != nil {
			return storeErr(err)
		}
		if overlaps {
			return apperrors.ErrOverlappingBudget
		}
	}
	return nil
}

// Overlaps reports whether two inclusive date ranges share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd models.Date) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// ValidateGoal checks a candidate goal's fields and linked account.
func ValidateGoal(finder AccountFinder, userID string, g *models.Goal) error {
	if err := normalizeName("name", &g.Name); err != nil {
		return err
	}
	if !slices.Contains(models.GoalTypes, g.Type) {
		return invalid("invalid goal type %q", g.Type)
	}
	if err := ValidatePositive("target_amount", g.TargetAmount); err != nil {
		return err
	}
	if err := ValidateNonNegative("current_amount", g.CurrentAmount); err != nil {
		return err
	}
	if g.LinkedAccountID != nil {
		if _, err := ownedAccount(finder, userID, *g.LinkedAccountID, "Linked account"); err != nil {
			return err
		}
	}
	return nil
}

// CheckGoalCeiling rejects a directly written current amount above the
// target, except for debt goals. Progress updates are not subject to it.
func CheckGoalCeiling(g *models.Goal) error {
	if g.Type != models.GoalTypeDebt && g.CurrentAmount.GreaterThan(g.TargetAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Current amount cannot exceed target amount")
	}
	return nil
}

// CheckAccountDeletable refuses to delete an account that transactions
// reference, either as source or transfer destination.
func CheckAccountDeletable(store Store, accountID string) error {
	n, err := store.CountAccountTransactions(accountID)
	if err != nil {
		return storeErr(err)
	}
	if n > 0 {
		return apperrors.WithMessage(apperrors.ErrHasDependents,
			fmt.Sprintf("Cannot delete account with %d existing transactions", n))
	}
	return nil
}

// CheckCategoryDeletable refuses to delete a category with transactions or
// subcategories.
func CheckCategoryDeletable(store Store, categoryID string) error {
	n, err := store.CountCategoryTransactions(categoryID)
	if err != nil {
		return storeErr(err)
	}
	if n > 0 {
		return apperrors.WithMessage(apperrors.ErrHasDependents,
			fmt.Sprintf("Cannot delete category with %d existing transactions", n))
	}

	n, err = store.CountSubcategories(categoryID)
	if err != nil {
		return storeErr(err)
	}
	if n > 0 {
		return apperrors.WithMessage(apperrors.ErrHasDependents,
			fmt.Sprintf("Cannot delete category with %d subcategories", n))
	}
	return nil
}
