package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "prism/internal/errors"
	"prism/internal/models"
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 15 * time.Minute
	minPasswordLength       = 8
)

// userService handles user-related business logic.
type userService struct {
	db          *gorm.DB
	maxAttempts int
	lockout     time.Duration
}

// UserOption configures a user service.
type UserOption func(*userService)

// WithLoginLockout locks an account for lockout after maxAttempts
// consecutive failed logins.
func WithLoginLockout(maxAttempts int, lockout time.Duration) UserOption {
	return func(s *userService) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if lockout > 0 {
			s.lockout = lockout
		}
	}
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, opts ...UserOption) UserServicer {
	s := &userService{db: db, maxAttempts: defaultMaxLoginAttempts, lockout: defaultLockoutDuration}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}
	return nil
}

// CreateUser registers a new user
func (s *userService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	// Check if user with email exists
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		IsActive:  true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, dbError(err, apperrors.ErrDuplicateEmail)
	}

	return user, nil
}

// GetUserByEmail retrieves an active user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", normalizeEmail(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin checks credentials and tracks consecutive failures. Unknown
// emails and wrong passwords return the same error.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, apperrors.ErrAccountLocked
	}

	if !s.VerifyPassword(user, password) {
		attempts := user.FailedLoginAttempts + 1
		updates := map[string]any{"failed_login_attempts": attempts}
		if attempts >= s.maxAttempts {
			updates["locked_until"] = now.Add(s.lockout)
		}
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	updates := map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	return user, nil
}

// StoreRefreshTokenHash replaces the user's current refresh token hash.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RotateRefreshTokenHash replaces currentHash with nextHash in a single
// conditional update. A hash that is no longer stored yields ErrInvalidToken,
// so each refresh token is redeemed at most once.
func (s *userService) RotateRefreshTokenHash(userID, currentHash, nextHash string) error {
	if currentHash == "" {
		return apperrors.ErrInvalidToken
	}
	res := s.db.Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", userID, currentHash).
		Update("refresh_token_hash", nextHash)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInvalidToken
	}
	return nil
}

// UpdateProfile applies a partial profile update. A changed email must not
// belong to another user.
func (s *userService) UpdateProfile(userID string, patch ProfilePatch) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email cannot be empty")
		}
		var count int64
		if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, userID).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateEmail
		}
		patch.Email = &email
	}

	patch.Apply(user)
	if err := s.db.Model(user).Select("email", "first_name", "last_name").Updates(user).Error; err != nil {
		return nil, dbError(err, apperrors.ErrDuplicateEmail)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// Existing refresh tokens stop working.
func (s *userService) ChangePassword(userID, currentPassword, newPassword, confirmPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(user, currentPassword) {
		return apperrors.WithMessage(apperrors.ErrInvalidPassword, "Current password is incorrect")
	}
	if newPassword != confirmPassword {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "New passwords don't match")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	updates := map[string]any{"password": string(hashed), "refresh_token_hash": ""}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteUser removes the user and every record they own in one transaction.
func (s *userService) DeleteUser(userID, password string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(user, password) {
		return apperrors.WithMessage(apperrors.ErrInvalidPassword, "Password is incorrect")
	}

	// Children before parents so foreign keys hold at every step.
	owned := []any{
		&models.Transaction{},
		&models.Budget{},
		&models.Goal{},
		&models.Account{},
		&models.AuditLog{},
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range owned {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		// Subcategories reference their parents, so detach before deleting.
		if err := tx.Model(&models.Category{}).Where("user_id = ?", userID).Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
