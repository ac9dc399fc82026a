package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "prism/internal/errors"
	"prism/internal/middleware"
	"prism/internal/models"
	"prism/internal/services"
	"prism/internal/validator"
)

const (
	testUserID  = "0190f3a2-0000-7000-8000-000000000001"
	testOtherID = "0190f3a2-0000-7000-8000-0000000000ff"
)

// --- mock user service ---

type mockUserService struct {
	createUserFn            func(email, password, firstName, lastName string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	attemptLoginFn          func(email, password string) (*models.User, error)
	storeRefreshTokenHashFn func(userID, tokenHash string) error
	rotateRefreshTokenFn    func(userID, currentHash, nextHash string) error
	updateProfileFn         func(userID string, patch services.ProfilePatch) (*models.User, error)
	changePasswordFn        func(userID, currentPassword, newPassword, confirmPassword string) error
	deleteUserFn            func(userID, password string) error
}

func (m *mockUserService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(_ string) (*models.User, error) {
	return nil, apperrors.ErrUserNotFound
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	u := &models.User{Email: "test@example.com"}
	u.ID = id
	return u, nil
}

func (m *mockUserService) VerifyPassword(_ *models.User, _ string) bool {
	return false
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return nil, apperrors.ErrInvalidCredentials
}

func (m *mockUserService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) RotateRefreshTokenHash(userID, currentHash, nextHash string) error {
	if m.rotateRefreshTokenFn != nil {
		return m.rotateRefreshTokenFn(userID, currentHash, nextHash)
	}
	return apperrors.ErrInvalidToken
}

func (m *mockUserService) UpdateProfile(userID string, patch services.ProfilePatch) (*models.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(userID, patch)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ChangePassword(userID, currentPassword, newPassword, confirmPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(userID, currentPassword, newPassword, confirmPassword)
	}
	return nil
}

func (m *mockUserService) DeleteUser(userID, password string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(userID, password)
	}
	return nil
}

var _ services.UserServicer = (*mockUserService)(nil)

// --- mock audit service ---

type mockAuditService struct {
	actions []string
}

func (m *mockAuditService) Log(_, action, _, _, _ string, _ map[string]any) {
	m.actions = append(m.actions, action)
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func newTestUser(id, email string) *models.User {
	u := &models.User{Email: email, FirstName: "Test", LastName: "User", IsActive: true}
	u.ID = id
	return u
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.Refresh)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func tokensOf(t *testing.T, result map[string]interface{}) (access, refresh string) {
	t.Helper()
	tokens, ok := result["tokens"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected tokens object, got: %v", result)
	}
	access, _ = tokens["access"].(string)
	refresh, _ = tokens["refresh"].(string)
	return access, refresh
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with user and token pair", func(t *testing.T) {
		audit := &mockAuditService{}
		userSvc := &mockUserService{
			createUserFn: func(email, _, firstName, lastName string) (*models.User, error) {
				u := newTestUser(testUserID, email)
				u.FirstName, u.LastName = firstName, lastName
				return u, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, audit))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"test@example.com","password":"password123","first_name":"John","last_name":"Doe"}`)

		assertStatus(t, rec, http.StatusCreated)
		result := parseJSON(t, rec)
		access, refresh := tokensOf(t, result)
		if access == "" || refresh == "" {
			t.Error("expected non-empty access and refresh tokens")
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "test@example.com" {
			t.Errorf("expected email test@example.com, got %v", user["email"])
		}
		if _, leaked := user["password"]; leaked {
			t.Error("password hash must not be serialized")
		}
		if len(audit.actions) != 1 || audit.actions[0] != "REGISTER" {
			t.Errorf("expected REGISTER audit entry, got %v", audit.actions)
		}
	})

	t.Run("returns 400 on missing email", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"password":"password123"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"short"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"dup@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})

	t.Run("stores hash of the issued refresh token", func(t *testing.T) {
		var storedHash string
		userSvc := &mockUserService{
			createUserFn: func(email, _, _, _ string) (*models.User, error) {
				return newTestUser(testUserID, email), nil
			},
			storeRefreshTokenHashFn: func(_, hash string) error {
				storedHash = hash
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusCreated)
		_, refresh := tokensOf(t, parseJSON(t, rec))
		if storedHash != middleware.HashToken(refresh) {
			t.Error("stored hash does not match the returned refresh token")
		}
	})

	t.Run("returns 500 when token storage fails", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(email, _, _, _ string) (*models.User, error) {
				return newTestUser(testUserID, email), nil
			},
			storeRefreshTokenHashFn: func(_, _ string) error {
				return fmt.Errorf("db connection lost")
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusInternalServerError)
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 on valid credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(email, password string) (*models.User, error) {
				if password != "password123" {
					return nil, apperrors.ErrInvalidCredentials
				}
				return newTestUser(testUserID, email), nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusOK)
		access, _ := tokensOf(t, parseJSON(t, rec))
		if access == "" {
			t.Error("expected access token")
		}
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"wrong"}`)

		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 423 when locked", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrAccountLocked
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"password123"}`)

		assertStatus(t, rec, http.StatusLocked)
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_LOCKED")
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":`)

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	user := newTestUser(testUserID, "test@example.com")

	t.Run("rotates a current refresh token", func(t *testing.T) {
		pair, err := middleware.GenerateTokenPair(user)
		if err != nil {
			t.Fatalf("failed to generate tokens: %v", err)
		}
		stored := middleware.HashToken(pair.Refresh)
		userSvc := &mockUserService{
			rotateRefreshTokenFn: func(_, current, next string) error {
				if current != stored {
					return apperrors.ErrInvalidToken
				}
				stored = next
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh":%q}`, pair.Refresh))

		assertStatus(t, rec, http.StatusOK)
		_, refresh := tokensOf(t, parseJSON(t, rec))
		if refresh == pair.Refresh {
			t.Error("expected a new refresh token")
		}
		if stored != middleware.HashToken(refresh) {
			t.Error("expected the new refresh token hash to be stored")
		}

		// The rotated-out token is no longer accepted.
		rec = doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh":%q}`, pair.Refresh))
		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TOKEN")
	})

	t.Run("rejects an access token", func(t *testing.T) {
		pair, _ := middleware.GenerateTokenPair(user)
		userSvc := &mockUserService{
			rotateRefreshTokenFn: func(_, _, _ string) error {
				t.Error("access token must not reach rotation")
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh":%q}`, pair.Access))

		assertStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("rejects when no token is stored", func(t *testing.T) {
		pair, _ := middleware.GenerateTokenPair(user)
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh":%q}`, pair.Refresh))

		assertStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("returns 400 without token", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", `{}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
