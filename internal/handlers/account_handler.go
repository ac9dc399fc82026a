package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prism/internal/models"
	"prism/internal/pagination"
	"prism/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the request payload for creating an account.
type CreateAccountRequest struct {
	Name     string             `json:"name" binding:"required,min=1,max=100"`
	Type     models.AccountType `json:"account_type" binding:"required,account_type"`
	Balance  decimal.Decimal    `json:"balance" swaggertype:"string" example:"0.00"`
	IsActive *bool              `json:"is_active"`
}

// UpdateAccountRequest represents the request payload for updating an account.
// Absent fields are left unchanged.
type UpdateAccountRequest struct {
	Name     *string             `json:"name" binding:"omitempty,min=1,max=100"`
	Type     *models.AccountType `json:"account_type" binding:"omitempty,account_type"`
	Balance  *decimal.Decimal    `json:"balance" swaggertype:"string" example:"250.00"`
	IsActive *bool               `json:"is_active"`
}

// AccountListQuery holds the query parameters of GET /accounts.
type AccountListQuery struct {
	pagination.PageRequest
	Type     *models.AccountType `form:"account_type" binding:"omitempty,account_type"`
	IsActive *bool               `form:"is_active"`
	Search   string              `form:"search" binding:"max=100"`
	Ordering string              `form:"ordering"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Create a new account for the authenticated user
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.CreateAccount(userID, services.AccountInput{
		Name:     req.Name,
		Type:     req.Type,
		Balance:  req.Balance,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ACCOUNT", "account", account.ID, c.ClientIP(),
		map[string]any{"name": account.Name, "account_type": account.Type})

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// GetUserAccounts handles the retrieval of accounts for a user
// @Summary     Get user accounts
// @Description Get a paginated list of accounts for the authenticated user
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       account_type query string false "Filter by account type"
// @Param       is_active    query bool   false "Filter by active flag"
// @Param       search       query string false "Case-insensitive name search"
// @Param       ordering     query string false "name, balance, created_at; prefix with - for descending"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Account] "Paginated accounts"
// @Failure     400 {object} middleware.ErrorResponse "Invalid query"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) GetUserAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q AccountListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.accountService.GetUserAccounts(userID, services.AccountFilter{
		Type:     q.Type,
		IsActive: q.IsActive,
		Search:   q.Search,
		Ordering: q.Ordering,
	}, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAccountByID handles the retrieval of a specific account for a user
// @Summary     Get account by ID
// @Description Get a specific account by ID for the authenticated user
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account details"
// @Failure     400 {object} middleware.ErrorResponse "Invalid account ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Account not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount handles updating an account.
// @Summary     Update account
// @Description Partially update an existing account for the authenticated user. PUT and PATCH behave the same.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Param       request body UpdateAccountRequest true "Updated account details"
// @Success     200 {object} models.Account "Updated account"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input or account ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Account not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /accounts/{id} [put]
// @Router      /accounts/{id} [patch]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.UpdateAccount(userID, accountID, services.AccountPatch{
		Name:     req.Name,
		Type:     req.Type,
		Balance:  req.Balance,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ACCOUNT", "account", accountID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount handles deleting an account without transactions.
// @Summary     Delete account
// @Description Delete an account. Accounts referenced by transactions cannot be deleted.
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     204 "Account deleted"
// @Failure     400 {object} middleware.ErrorResponse "Account has transactions"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Account not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(userID, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_ACCOUNT", "account", accountID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetAccountSummary returns balance totals across the user's accounts.
// @Summary     Account summary
// @Description Total balance, account counts and per-type balances
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} finance.AccountSummary "Account summary"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /accounts/summary [get]
func (h *AccountHandler) GetAccountSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.accountService.GetAccountSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
