package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prism/internal/models"
	"prism/internal/pagination"
	"prism/internal/services"
)

// BudgetHandler handles budget-related requests
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget
type CreateBudgetRequest struct {
	CategoryID string              `json:"category_id" binding:"required,uuid"`
	Name       string              `json:"name" binding:"required,min=1,max=100"`
	Amount     *decimal.Decimal    `json:"amount" binding:"required" swaggertype:"string" example:"400.00"`
	Period     models.BudgetPeriod `json:"period" binding:"required,budget_period"`
	StartDate  *models.Date        `json:"start_date" binding:"required" swaggertype:"string" example:"2024-01-01"`
	EndDate    *models.Date        `json:"end_date" binding:"required" swaggertype:"string" example:"2024-01-31"`
	IsActive   *bool               `json:"is_active"`
}

// UpdateBudgetRequest represents the request payload for updating a budget
type UpdateBudgetRequest struct {
	CategoryID *string              `json:"category_id" binding:"omitempty,uuid"`
	Name       *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Amount     *decimal.Decimal     `json:"amount" swaggertype:"string" example:"450.00"`
	Period     *models.BudgetPeriod `json:"period" binding:"omitempty,budget_period"`
	StartDate  *models.Date         `json:"start_date" swaggertype:"string" example:"2024-01-01"`
	EndDate    *models.Date         `json:"end_date" swaggertype:"string" example:"2024-01-31"`
	IsActive   *bool                `json:"is_active"`
}

// BudgetListQuery holds the query parameters of GET /budgets.
type BudgetListQuery struct {
	pagination.PageRequest
	CategoryID string               `form:"category_id" binding:"omitempty,uuid"`
	Period     *models.BudgetPeriod `form:"period" binding:"omitempty,budget_period"`
	IsActive   *bool                `form:"is_active"`
	StartDate  string               `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    string               `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Search     string               `form:"search" binding:"max=100"`
	Ordering   string               `form:"ordering"`
}

// CreateBudget handles the creation of a new budget
// @Summary     Create a budget
// @Description Create a spending limit for an expense category over a date range
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} services.BudgetView "Budget created"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input, date range or overlapping budget"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Category not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, services.BudgetInput{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Amount:     *req.Amount,
		Period:     req.Period,
		StartDate:  *req.StartDate,
		EndDate:    *req.EndDate,
		IsActive:   req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]any{"name": budget.Name, "amount": budget.Amount.String(), "category_id": budget.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetUserBudgets handles the retrieval of budgets for a user
// @Summary     Get user budgets
// @Description Get a filtered, paginated list of budgets with spending statistics
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       category_id query string false "Filter by category"
// @Param       period      query string false "monthly, quarterly or yearly"
// @Param       is_active   query bool   false "Filter by active flag"
// @Param       start_date  query string false "Budgets starting on or after (YYYY-MM-DD)"
// @Param       end_date    query string false "Budgets ending on or before (YYYY-MM-DD)"
// @Param       search      query string false "Case-insensitive name search"
// @Param       ordering    query string false "name, amount, start_date, created_at; prefix with - for descending"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.BudgetView] "Paginated budgets"
// @Failure     400 {object} middleware.ErrorResponse "Invalid query"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetUserBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q BudgetListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	start, err := parseQueryDate("start_date", q.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseQueryDate("end_date", q.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.GetUserBudgets(userID, services.BudgetFilter{
		CategoryID: optionalID(q.CategoryID),
		Period:     q.Period,
		IsActive:   q.IsActive,
		StartDate:  start,
		EndDate:    end,
		Search:     q.Search,
		Ordering:   q.Ordering,
	}, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudgetByID handles the retrieval of a specific budget
// @Summary     Get budget by ID
// @Description Get a budget with its spent, remaining and percentage used
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetView "Budget details"
// @Failure     400 {object} middleware.ErrorResponse "Invalid budget ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Budget not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudgetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating a budget
// @Summary     Update budget
// @Description Partially update a budget. Range, overlap and uniqueness are checked against the merged result.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} services.BudgetView "Updated budget"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input, date range or overlapping budget"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Budget not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
// @Router      /budgets/{id} [patch]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, services.BudgetPatch{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		IsActive:   req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget
// @Summary     Delete budget
// @Description Delete a budget owned by the authenticated user
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     204 "Budget deleted"
// @Failure     400 {object} middleware.ErrorResponse "Invalid budget ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Budget not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetCurrentBudgets returns active budgets covering today
// @Summary     Current budgets
// @Description Active budgets whose range includes today
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} pagination.Collection[services.BudgetView] "Current budgets"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /budgets/current [get]
func (h *BudgetHandler) GetCurrentBudgets(c *gin.Context) {
	h.collection(c, h.budgetService.GetCurrentBudgets)
}

// GetOverBudget returns active budgets whose spending exceeds the amount
// @Summary     Over-budget list
// @Description Active budgets where spent exceeds the budgeted amount
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} pagination.Collection[services.BudgetView] "Over-budget budgets"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /budgets/over-budget [get]
func (h *BudgetHandler) GetOverBudget(c *gin.Context) {
	h.collection(c, h.budgetService.GetOverBudget)
}

func (h *BudgetHandler) collection(c *gin.Context, list func(userID string) ([]services.BudgetView, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := list(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewCollection(budgets))
}

// GetBudgetSummary totals the active budgets
// @Summary     Budget summary
// @Description Totals budgeted, spent and remaining across active budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} finance.BudgetSummary "Budget summary"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /budgets/summary [get]
func (h *BudgetHandler) GetBudgetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetBudgetSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
