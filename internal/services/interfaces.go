package services

import (
	"prism/internal/finance"
	"prism/internal/models"
	"prism/internal/pagination"

	"github.com/shopspring/decimal"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	RotateRefreshTokenHash(userID, currentHash, nextHash string) error
	UpdateProfile(userID string, patch ProfilePatch) (*models.User, error)
	ChangePassword(userID, currentPassword, newPassword, confirmPassword string) error
	DeleteUser(userID, password string) error
}

// AccountInput holds the fields of a new account.
type AccountInput struct {
	Name     string
	Type     models.AccountType
	Balance  decimal.Decimal
	IsActive *bool
}

// AccountFilter holds optional filter parameters for listing accounts.
type AccountFilter struct {
	Type     *models.AccountType
	IsActive *bool
	Search   string
	Ordering string
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID string, in AccountInput) (*models.Account, error)
	GetUserAccounts(userID string, filter AccountFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, patch AccountPatch) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
	GetAccountSummary(userID string) (*finance.AccountSummary, error)
}

// CategoryInput holds the fields of a new category.
type CategoryInput struct {
	Name     string
	Type     models.CategoryType
	Color    string
	ParentID *string
	IsActive *bool
}

// CategoryFilter holds optional filter parameters for listing categories.
// RootOnly restricts the list to categories without a parent.
type CategoryFilter struct {
	Type     *models.CategoryType
	IsActive *bool
	ParentID *string
	RootOnly bool
	Search   string
	Ordering string
}

// CategoryView is a category with its display path.
type CategoryView struct {
	models.Category
	FullName   string  `json:"full_name"`
	ParentName *string `json:"parent_name"`
}

// CategoryGroup is one type's share of CategoriesByType.
type CategoryGroup struct {
	Count      int            `json:"count"`
	Categories []CategoryView `json:"categories"`
}

// CategoriesByType splits active categories into income and expense.
type CategoriesByType struct {
	Income  CategoryGroup `json:"income"`
	Expense CategoryGroup `json:"expense"`
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID string, in CategoryInput) (*CategoryView, error)
	GetUserCategories(userID string, filter CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[CategoryView], error)
	GetCategoryByID(userID, categoryID string) (*CategoryView, error)
	UpdateCategory(userID, categoryID string, patch CategoryPatch) (*CategoryView, error)
	DeleteCategory(userID, categoryID string) error
	GetCategoryTree(userID string) ([]*finance.CategoryNode, error)
	GetCategoriesByType(userID string) (*CategoriesByType, error)
}

// TransactionInput holds the fields of a new transaction.
type TransactionInput struct {
	AccountID          string
	CategoryID         *string
	Amount             decimal.Decimal
	Description        string
	Date               models.Date
	Notes              string
	TransferToID       *string
	IsRecurring        bool
	RecurringFrequency *models.RecurringFrequency
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	StartDate   *models.Date
	EndDate     *models.Date
	AccountID   *string
	CategoryID  *string
	IsRecurring *bool
	Search      string
	Ordering    string
}

// TransactionView is a transaction with its direction flags.
type TransactionView struct {
	models.Transaction
	Expense  bool `json:"is_expense"`
	Income   bool `json:"is_income"`
	Transfer bool `json:"is_transfer"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*TransactionView, error)
	GetUserTransactions(userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[TransactionView], error)
	GetTransactionByID(userID, transactionID string) (*TransactionView, error)
	UpdateTransaction(userID, transactionID string, patch TransactionPatch) (*TransactionView, error)
	DeleteTransaction(userID, transactionID string) error
	GetTransactionSummary(userID string, filter TransactionFilter) (*finance.TransactionSummary, error)
	GetRecentTransactions(userID string, limit int) ([]TransactionView, error)
}

// BudgetInput holds the fields of a new budget.
type BudgetInput struct {
	CategoryID string
	Name       string
	Amount     decimal.Decimal
	Period     models.BudgetPeriod
	StartDate  models.Date
	EndDate    models.Date
	IsActive   *bool
}

// BudgetFilter holds optional filter parameters for listing budgets.
// StartDate bounds start_date from below and EndDate bounds end_date from above.
type BudgetFilter struct {
	CategoryID *string
	Period     *models.BudgetPeriod
	IsActive   *bool
	StartDate  *models.Date
	EndDate    *models.Date
	Search     string
	Ordering   string
}

// BudgetView is a budget with its spending statistics.
type BudgetView struct {
	models.Budget
	finance.BudgetStats
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, in BudgetInput) (*BudgetView, error)
	GetUserBudgets(userID string, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[BudgetView], error)
	GetBudgetByID(userID, budgetID string) (*BudgetView, error)
	UpdateBudget(userID, budgetID string, patch BudgetPatch) (*BudgetView, error)
	DeleteBudget(userID, budgetID string) error
	GetCurrentBudgets(userID string) ([]BudgetView, error)
	GetOverBudget(userID string) ([]BudgetView, error)
	GetBudgetSummary(userID string) (*finance.BudgetSummary, error)
}

// GoalInput holds the fields of a new goal.
type GoalInput struct {
	Name            string
	Description     string
	Type            models.GoalType
	TargetAmount    decimal.Decimal
	CurrentAmount   decimal.Decimal
	TargetDate      *models.Date
	LinkedAccountID *string
	IsActive        *bool
}

// GoalFilter holds optional filter parameters for listing goals.
type GoalFilter struct {
	Type            *models.GoalType
	IsActive        *bool
	IsCompleted     *bool
	LinkedAccountID *string
	Search          string
	Ordering        string
}

// GoalView is a goal with its progress statistics.
type GoalView struct {
	models.Goal
	finance.GoalStats
}

// GoalServicer defines the contract for goal-related business logic.
type GoalServicer interface {
	CreateGoal(userID string, in GoalInput) (*GoalView, error)
	GetUserGoals(userID string, filter GoalFilter, page pagination.PageRequest) (*pagination.PageResponse[GoalView], error)
	GetGoalByID(userID, goalID string) (*GoalView, error)
	UpdateGoal(userID, goalID string, patch GoalPatch) (*GoalView, error)
	DeleteGoal(userID, goalID string) error
	UpdateGoalProgress(userID, goalID string, delta decimal.Decimal) (*GoalView, error)
	GetActiveGoals(userID string) ([]GoalView, error)
	GetCompletedGoals(userID string) ([]GoalView, error)
	GetNearTargetGoals(userID string) ([]GoalView, error)
	GetGoalSummary(userID string) (*finance.GoalSummary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
