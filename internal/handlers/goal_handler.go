package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prism/internal/models"
	"prism/internal/pagination"
	"prism/internal/services"
)

// GoalHandler handles goal-related requests
type GoalHandler struct {
	goalService  services.GoalServicer
	auditService services.AuditServicer
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService services.GoalServicer, auditService services.AuditServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService, auditService: auditService}
}

// CreateGoalRequest represents the request payload for creating a goal
type CreateGoalRequest struct {
	Name            string           `json:"name" binding:"required,min=1,max=100"`
	Description     string           `json:"description" binding:"max=1000"`
	Type            models.GoalType  `json:"goal_type" binding:"omitempty,goal_type"`
	TargetAmount    *decimal.Decimal `json:"target_amount" binding:"required" swaggertype:"string" example:"1000.00"`
	CurrentAmount   decimal.Decimal  `json:"current_amount" swaggertype:"string" example:"0.00"`
	TargetDate      *models.Date     `json:"target_date" swaggertype:"string" example:"2024-12-31"`
	LinkedAccountID *string          `json:"linked_account_id" binding:"omitempty,uuid"`
	IsActive        *bool            `json:"is_active"`
}

// UpdateGoalRequest represents the request payload for updating a goal.
// An empty target_date or linked_account_id clears the field.
type UpdateGoalRequest struct {
	Name            *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Description     *string          `json:"description" binding:"omitempty,max=1000"`
	Type            *models.GoalType `json:"goal_type" binding:"omitempty,goal_type"`
	TargetAmount    *decimal.Decimal `json:"target_amount" swaggertype:"string" example:"1500.00"`
	CurrentAmount   *decimal.Decimal `json:"current_amount" swaggertype:"string" example:"250.00"`
	TargetDate      *models.Date     `json:"target_date" swaggertype:"string" example:"2024-12-31"`
	LinkedAccountID *string          `json:"linked_account_id" binding:"omitempty,uuid|len=0"`
	IsActive        *bool            `json:"is_active"`
}

// UpdateProgressRequest carries a signed change to a goal's current amount.
type UpdateProgressRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"50.00"`
}

// GoalListQuery holds the query parameters of GET /goals.
type GoalListQuery struct {
	pagination.PageRequest
	Type            *models.GoalType `form:"goal_type" binding:"omitempty,goal_type"`
	IsActive        *bool            `form:"is_active"`
	IsCompleted     *bool            `form:"is_completed"`
	LinkedAccountID string           `form:"linked_account_id" binding:"omitempty,uuid"`
	Search          string           `form:"search" binding:"max=100"`
	Ordering        string           `form:"ordering"`
}

// CreateGoal handles the creation of a new goal
// @Summary     Create a goal
// @Description Create a savings, debt or other financial goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal details"
// @Success     201 {object} services.GoalView "Goal created"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Linked account not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goalType := req.Type
	if goalType == "" {
		goalType = models.GoalTypeSavings
	}
	goal, err := h.goalService.CreateGoal(userID, services.GoalInput{
		Name:            req.Name,
		Description:     req.Description,
		Type:            goalType,
		TargetAmount:    *req.TargetAmount,
		CurrentAmount:   req.CurrentAmount,
		TargetDate:      req.TargetDate,
		LinkedAccountID: req.LinkedAccountID,
		IsActive:        req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GOAL", "goal", goal.ID, c.ClientIP(),
		map[string]any{"name": goal.Name, "target_amount": goal.TargetAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// GetUserGoals handles the retrieval of goals for a user
// @Summary     Get user goals
// @Description Get a filtered, paginated list of goals with progress statistics
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       goal_type         query string false "Filter by goal type"
// @Param       is_active         query bool   false "Filter by active flag"
// @Param       is_completed      query bool   false "Filter by completion"
// @Param       linked_account_id query string false "Filter by linked account"
// @Param       search            query string false "Case-insensitive name search"
// @Param       ordering          query string false "name, target_amount, target_date, created_at; prefix with - for descending"
// @Param       page              query int    false "Page number (default 1)"
// @Param       page_size         query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.GoalView] "Paginated goals"
// @Failure     400 {object} middleware.ErrorResponse "Invalid query"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals [get]
func (h *GoalHandler) GetUserGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q GoalListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.goalService.GetUserGoals(userID, services.GoalFilter{
		Type:            q.Type,
		IsActive:        q.IsActive,
		IsCompleted:     q.IsCompleted,
		LinkedAccountID: optionalID(q.LinkedAccountID),
		Search:          q.Search,
		Ordering:        q.Ordering,
	}, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGoalByID handles the retrieval of a specific goal
// @Summary     Get goal by ID
// @Description Get a goal with its remaining amount and progress
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} services.GoalView "Goal details"
// @Failure     400 {object} middleware.ErrorResponse "Invalid goal ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Goal not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals/{id} [get]
func (h *GoalHandler) GetGoalByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.GetGoalByID(userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// UpdateGoal handles updating a goal
// @Summary     Update goal
// @Description Partially update a goal. Completion is recomputed from the amounts.
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Param       request body UpdateGoalRequest true "Updated goal details"
// @Success     200 {object} services.GoalView "Updated goal"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Goal not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals/{id} [put]
// @Router      /goals/{id} [patch]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.goalService.UpdateGoal(userID, goalID, services.GoalPatch{
		Name:            req.Name,
		Description:     req.Description,
		Type:            req.Type,
		TargetAmount:    req.TargetAmount,
		CurrentAmount:   req.CurrentAmount,
		TargetDate:      req.TargetDate,
		LinkedAccountID: req.LinkedAccountID,
		IsActive:        req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GOAL", "goal", goalID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// DeleteGoal handles deleting a goal
// @Summary     Delete goal
// @Description Delete a goal owned by the authenticated user
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     204 "Goal deleted"
// @Failure     400 {object} middleware.ErrorResponse "Invalid goal ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Goal not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.goalService.DeleteGoal(userID, goalID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GOAL", "goal", goalID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// UpdateGoalProgress adds a signed amount to a goal's current amount
// @Summary     Update goal progress
// @Description Add to or subtract from the current amount. Reaching the target completes the goal and falling below it reopens it.
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Param       request body UpdateProgressRequest true "Signed amount"
// @Success     200 {object} services.GoalView "Updated goal"
// @Failure     400 {object} middleware.ErrorResponse "Invalid amount"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Goal not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals/{id}/update-progress [post]
func (h *GoalHandler) UpdateGoalProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.goalService.UpdateGoalProgress(userID, goalID, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_GOAL_PROGRESS", "goal", goalID, c.ClientIP(),
		map[string]any{"amount": req.Amount.String(), "current_amount": goal.CurrentAmount.String()})

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// GetActiveGoals returns active goals that are not yet completed
// @Summary     Active goals
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} pagination.Collection[services.GoalView] "Active goals"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals/active [get]
func (h *GoalHandler) GetActiveGoals(c *gin.Context) {
	h.collection(c, h.goalService.GetActiveGoals)
}

// GetCompletedGoals returns completed goals
// @Summary     Completed goals
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} pagination.Collection[services.GoalView] "Completed goals"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals/completed [get]
func (h *GoalHandler) GetCompletedGoals(c *gin.Context) {
	h.collection(c, h.goalService.GetCompletedGoals)
}

// GetNearTargetGoals returns active goals at 80% progress or more
// @Summary     Goals near target
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} pagination.Collection[services.GoalView] "Goals near their target"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals/near-target [get]
func (h *GoalHandler) GetNearTargetGoals(c *gin.Context) {
	h.collection(c, h.goalService.GetNearTargetGoals)
}

func (h *GoalHandler) collection(c *gin.Context, list func(userID string) ([]services.GoalView, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goals, err := list(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewCollection(goals))
}

// GetGoalSummary totals the user's goals
// @Summary     Goal summary
// @Description Counts, totals, average progress and a per-type breakdown
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} finance.GoalSummary "Goal summary"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /goals/summary [get]
func (h *GoalHandler) GetGoalSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.goalService.GetGoalSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
