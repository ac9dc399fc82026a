package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"prism/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates an active checking account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, "0")
}

// CreateTestAccountWithBalance creates an active checking account with the given balance.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID, balance string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     models.AccountTypeChecking,
		Balance:  decimal.RequireFromString(balance),
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a root category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return createCategory(t, db, userID, categoryType, nil)
}

// CreateTestSubcategory creates an active child of parent with the parent's type.
func CreateTestSubcategory(t *testing.T, db *gorm.DB, parent *models.Category) *models.Category {
	t.Helper()
	return createCategory(t, db, parent.UserID, parent.Type, &parent.ID)
}

func createCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType, parentID *string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		Color:    models.DefaultCategoryColor,
		ParentID: parentID,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction dated today. A negative amount
// is an expense.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, categoryID *string, amount string) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, userID, accountID, categoryID, amount, models.Today())
}

// CreateTestTransactionOn creates a transaction on the given date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, userID, accountID string, categoryID *string, amount string, date models.Date) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      decimal.RequireFromString(amount),
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates an active monthly budget of 100.00 covering the
// current calendar month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string) *models.Budget {
	t.Helper()

	today := models.Today()
	start := models.NewDate(today.AddDate(0, 0, 1-today.Day()))
	end := models.NewDate(start.AddDate(0, 1, -1))
	return CreateTestBudgetFor(t, db, userID, categoryID, start, end)
}

// CreateTestBudgetFor creates an active monthly budget of 100.00 over the given range.
func CreateTestBudgetFor(t *testing.T, db *gorm.DB, userID, categoryID string, start, end models.Date) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Name:       fmt.Sprintf("Test Budget %d", nextID()),
		Amount:     decimal.RequireFromString("100.00"),
		Period:     models.BudgetPeriodMonthly,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestGoal creates an active savings goal with the given amounts.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID, target, current string) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Goal %d", nextID()),
		Type:          models.GoalTypeSavings,
		TargetAmount:  decimal.RequireFromString(target),
		CurrentAmount: decimal.RequireFromString(current),
		IsActive:      true,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}
