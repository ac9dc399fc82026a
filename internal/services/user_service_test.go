package services

import (
	"testing"
	"time"

	"prism/internal/models"
	"prism/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("alice@example.com", "password123", "Alice", "Smith")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID to be set")
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected email alice@example.com, got %s", user.Email)
		}
		if user.FirstName != "Alice" {
			t.Errorf("expected first name Alice, got %s", user.FirstName)
		}
		if !user.IsActive {
			t.Error("expected user to be active")
		}
	})

	t.Run("normalizes_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("  Bob@Example.COM ", "password123", "", "")
		testutil.AssertNoError(t, err)

		if user.Email != "bob@example.com" {
			t.Errorf("expected normalized email, got %s", user.Email)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("dup@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("DUP@example.com", "password456", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("empty_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("", "password123", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("short_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("short@example.com", "short", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("password_is_hashed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("hash@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		if user.Password == "password123" {
			t.Fatal("expected password to be hashed")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")); err != nil {
			t.Errorf("stored hash does not match password: %v", err)
		}
	})
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created := testutil.CreateTestUserWithEmail(t, db, "find@example.com")

		user, err := svc.GetUserByEmail("Find@Example.com")
		testutil.AssertNoError(t, err)

		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetUserByEmail("missing@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestGetUserByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	created := testutil.CreateTestUser(t, db)

	user, err := svc.GetUserByID(created.ID)
	testutil.AssertNoError(t, err)
	if user.Email != created.Email {
		t.Errorf("expected email %s, got %s", created.Email, user.Email)
	}

	_, err = svc.GetUserByID("00000000-0000-0000-0000-000000000000")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_records_login", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created := testutil.CreateTestUser(t, db)

		user, err := svc.AttemptLogin(created.Email, testutil.TestPassword)
		testutil.AssertNoError(t, err)

		if user.LastLoginAt == nil {
			t.Error("expected last_login_at to be set")
		}
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.AttemptLogin("nobody@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("wrong_password_counts_failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created := testutil.CreateTestUser(t, db)

		_, err := svc.AttemptLogin(created.Email, "wrong-password")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		var user models.User
		db.First(&user, "id = ?", created.ID)
		if user.FailedLoginAttempts != 1 {
			t.Errorf("expected 1 failed attempt, got %d", user.FailedLoginAttempts)
		}
	})

	t.Run("locks_after_max_attempts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, WithLoginLockout(2, time.Hour))
		created := testutil.CreateTestUser(t, db)

		for range 2 {
			_, err := svc.AttemptLogin(created.Email, "wrong-password")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		_, err := svc.AttemptLogin(created.Email, testutil.TestPassword)
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("success_resets_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db, WithLoginLockout(3, time.Hour))
		created := testutil.CreateTestUser(t, db)

		_, _ = svc.AttemptLogin(created.Email, "wrong-password")
		_, err := svc.AttemptLogin(created.Email, testutil.TestPassword)
		testutil.AssertNoError(t, err)

		var user models.User
		db.First(&user, "id = ?", created.ID)
		if user.FailedLoginAttempts != 0 {
			t.Errorf("expected failures reset, got %d", user.FailedLoginAttempts)
		}
	})

	t.Run("expired_lock_allows_login", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created := testutil.CreateTestUser(t, db)

		past := time.Now().Add(-time.Minute)
		db.Model(created).Updates(map[string]any{"failed_login_attempts": 5, "locked_until": past})

		_, err := svc.AttemptLogin(created.Email, testutil.TestPassword)
		testutil.AssertNoError(t, err)
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "first"))
	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "second"))

	if hash := storedRefreshHash(t, svc, user.ID); hash != "second" {
		t.Errorf("expected latest hash, got %q", hash)
	}
}

func TestRotateRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	user := testutil.CreateTestUser(t, db)
	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "current"))

	t.Run("swaps_current_hash", func(t *testing.T) {
		testutil.AssertNoError(t, svc.RotateRefreshTokenHash(user.ID, "current", "next"))
		if hash := storedRefreshHash(t, svc, user.ID); hash != "next" {
			t.Errorf("expected next, got %q", hash)
		}
	})

	t.Run("replayed_hash_rejected", func(t *testing.T) {
		err := svc.RotateRefreshTokenHash(user.ID, "current", "other")
		testutil.AssertAppError(t, err, "INVALID_TOKEN")
		if hash := storedRefreshHash(t, svc, user.ID); hash != "next" {
			t.Errorf("expected hash unchanged, got %q", hash)
		}
	})

	t.Run("cleared_hash_rejected", func(t *testing.T) {
		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, ""))
		testutil.AssertAppError(t, svc.RotateRefreshTokenHash(user.ID, "", "next"), "INVALID_TOKEN")
	})
}

func storedRefreshHash(t *testing.T, svc UserServicer, userID string) string {
	t.Helper()
	user, err := svc.GetUserByID(userID)
	testutil.AssertNoError(t, err)
	return user.RefreshTokenHash
}

func TestUpdateProfile(t *testing.T) {
	t.Run("partial_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		first := "Ada"
		updated, err := svc.UpdateProfile(user.ID, ProfilePatch{FirstName: &first})
		testutil.AssertNoError(t, err)

		if updated.FirstName != "Ada" {
			t.Errorf("expected first name Ada, got %s", updated.FirstName)
		}
		if updated.Email != user.Email {
			t.Errorf("expected email unchanged, got %s", updated.Email)
		}
	})

	t.Run("email_taken", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateProfile(user.ID, ProfilePatch{Email: &other.Email})
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("own_email_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateProfile(user.ID, ProfilePatch{Email: &user.Email})
		testutil.AssertNoError(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "hash"))

		err := svc.ChangePassword(user.ID, testutil.TestPassword, "newpassword1", "newpassword1")
		testutil.AssertNoError(t, err)

		_, err = svc.AttemptLogin(user.Email, "newpassword1")
		testutil.AssertNoError(t, err)

		if hash := storedRefreshHash(t, svc, user.ID); hash != "" {
			t.Error("expected refresh token hash to be cleared")
		}
	})

	t.Run("wrong_current", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		err := svc.ChangePassword(user.ID, "not-it", "newpassword1", "newpassword1")
		testutil.AssertAppError(t, err, "INVALID_PASSWORD")
	})

	t.Run("mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		err := svc.ChangePassword(user.ID, testutil.TestPassword, "newpassword1", "newpassword2")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("cascades_owned_records", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		account := testutil.CreateTestAccount(t, db, user.ID)
		parent := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		child := testutil.CreateTestSubcategory(t, db, parent)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, &child.ID, "-10.00")
		testutil.CreateTestBudget(t, db, user.ID, parent.ID)
		testutil.CreateTestGoal(t, db, user.ID, "100.00", "0")
		otherAccount := testutil.CreateTestAccount(t, db, other.ID)

		err := svc.DeleteUser(user.ID, testutil.TestPassword)
		testutil.AssertNoError(t, err)

		for _, model := range []any{&models.Account{}, &models.Category{}, &models.Transaction{}, &models.Budget{}, &models.Goal{}} {
			var count int64
			db.Model(model).Where("user_id = ?", user.ID).Count(&count)
			if count != 0 {
				t.Errorf("expected no %T rows left, got %d", model, count)
			}
		}

		_, err = svc.GetUserByID(user.ID)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")

		var remaining models.Account
		if err := db.First(&remaining, "id = ?", otherAccount.ID).Error; err != nil {
			t.Errorf("expected other user's account to survive: %v", err)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteUser(user.ID, "not-it")
		testutil.AssertAppError(t, err, "INVALID_PASSWORD")
	})
}
