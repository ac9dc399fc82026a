package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prism/internal/models"
	"prism/internal/pagination"
	"prism/internal/services"
)

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Negative amounts are expenses, positive amounts income.
type CreateTransactionRequest struct {
	AccountID          string                     `json:"account_id" binding:"required,uuid"`
	CategoryID         *string                    `json:"category_id" binding:"omitempty,uuid"`
	Amount             *decimal.Decimal           `json:"amount" binding:"required" swaggertype:"string" example:"-42.50"`
	Description        string                     `json:"description" binding:"required,min=1,max=255"`
	Date               *models.Date               `json:"date" binding:"required" swaggertype:"string" example:"2024-01-15"`
	Notes              string                     `json:"notes" binding:"max=1000"`
	TransferToID       *string                    `json:"transfer_to_id" binding:"omitempty,uuid"`
	IsRecurring        bool                       `json:"is_recurring"`
	RecurringFrequency *models.RecurringFrequency `json:"recurring_frequency" binding:"omitempty,recurring_frequency"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
// Empty category_id, transfer_to_id or recurring_frequency clear the field.
type UpdateTransactionRequest struct {
	AccountID          *string                    `json:"account_id" binding:"omitempty,uuid"`
	CategoryID         *string                    `json:"category_id" binding:"omitempty,uuid|len=0"`
	Amount             *decimal.Decimal           `json:"amount" swaggertype:"string" example:"-42.50"`
	Description        *string                    `json:"description" binding:"omitempty,min=1,max=255"`
	Date               *models.Date               `json:"date" swaggertype:"string" example:"2024-01-15"`
	Notes              *string                    `json:"notes" binding:"omitempty,max=1000"`
	TransferToID       *string                    `json:"transfer_to_id" binding:"omitempty,uuid|len=0"`
	IsRecurring        *bool                      `json:"is_recurring"`
	RecurringFrequency *models.RecurringFrequency `json:"recurring_frequency" binding:"omitempty,recurring_frequency|len=0"`
}

// TransactionFilterQuery holds the filter query parameters shared by the
// transaction list and summary endpoints.
type TransactionFilterQuery struct {
	StartDate   string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	AccountID   string `form:"account_id" binding:"omitempty,uuid"`
	CategoryID  string `form:"category_id" binding:"omitempty,uuid"`
	IsRecurring *bool  `form:"is_recurring"`
	Search      string `form:"search" binding:"max=100"`
	Ordering    string `form:"ordering"`
}

// TransactionListQuery holds the query parameters of GET /transactions.
type TransactionListQuery struct {
	pagination.PageRequest
	TransactionFilterQuery
}

// RecentQuery holds the query parameters of GET /transactions/recent.
type RecentQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

func (q TransactionFilterQuery) filter() (services.TransactionFilter, error) {
	start, err := parseQueryDate("start_date", q.StartDate)
	if err != nil {
		return services.TransactionFilter{}, err
	}
	end, err := parseQueryDate("end_date", q.EndDate)
	if err != nil {
		return services.TransactionFilter{}, err
	}
	return services.TransactionFilter{
		StartDate:   start,
		EndDate:     end,
		AccountID:   optionalID(q.AccountID),
		CategoryID:  optionalID(q.CategoryID),
		IsRecurring: q.IsRecurring,
		Search:      q.Search,
		Ordering:    q.Ordering,
	}, nil
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record income, an expense or a transfer for the authenticated user
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} services.TransactionView "Transaction created"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Account or category not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	tx, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		AccountID:          req.AccountID,
		CategoryID:         req.CategoryID,
		Amount:             *req.Amount,
		Description:        req.Description,
		Date:               *req.Date,
		Notes:              req.Notes,
		TransferToID:       req.TransferToID,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", tx.ID, c.ClientIP(),
		map[string]any{"account_id": tx.AccountID, "amount": tx.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// GetUserTransactions handles the retrieval of transactions for a user
// @Summary     Get user transactions
// @Description Get a filtered, paginated list of transactions, newest first by default
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       start_date   query string false "Earliest date (YYYY-MM-DD)"
// @Param       end_date     query string false "Latest date (YYYY-MM-DD)"
// @Param       account_id   query string false "Filter by account"
// @Param       category_id  query string false "Filter by category"
// @Param       is_recurring query bool   false "Filter by recurring flag"
// @Param       search       query string false "Search description and notes"
// @Param       ordering     query string false "date, amount, created_at; prefix with - for descending"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.TransactionView] "Paginated transactions"
// @Failure     400 {object} middleware.ErrorResponse "Invalid query"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	filter, err := q.filter()
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, filter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction with its account and category
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} services.TransactionView "Transaction details"
// @Failure     400 {object} middleware.ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Transaction not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// UpdateTransaction handles updating a transaction
// @Summary     Update transaction
// @Description Partially update a transaction. The merged result is revalidated.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Updated transaction details"
// @Success     200 {object} services.TransactionView "Updated transaction"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Transaction not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
// @Router      /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	tx, err := h.transactionService.UpdateTransaction(userID, transactionID, services.TransactionPatch{
		AccountID:          req.AccountID,
		CategoryID:         req.CategoryID,
		Amount:             req.Amount,
		Description:        req.Description,
		Date:               req.Date,
		Notes:              req.Notes,
		TransferToID:       req.TransferToID,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete transaction
// @Description Delete a transaction owned by the authenticated user
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     400 {object} middleware.ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Transaction not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetTransactionSummary totals the user's transactions
// @Summary     Transaction summary
// @Description Income, expense and net totals over the filtered transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       start_date  query string false "Earliest date (YYYY-MM-DD)"
// @Param       end_date    query string false "Latest date (YYYY-MM-DD)"
// @Param       account_id  query string false "Filter by account"
// @Param       category_id query string false "Filter by category"
// @Success     200 {object} finance.TransactionSummary "Summary"
// @Failure     400 {object} middleware.ErrorResponse "Invalid query or date range"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /transactions/summary [get]
func (h *TransactionHandler) GetTransactionSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q TransactionFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	filter, err := q.filter()
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.transactionService.GetTransactionSummary(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetRecentTransactions returns the latest transactions of the last 30 days
// @Summary     Recent transactions
// @Description Most recent transactions dated within the last 30 days
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum results (default 10, capped at 100)"
// @Success     200 {object} pagination.Collection[services.TransactionView] "Recent transactions"
// @Failure     400 {object} middleware.ErrorResponse "Invalid limit"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /transactions/recent [get]
func (h *TransactionHandler) GetRecentTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q RecentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	txs, err := h.transactionService.GetRecentTransactions(userID, q.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewCollection(txs))
}
