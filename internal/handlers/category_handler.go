package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prism/internal/models"
	"prism/internal/pagination"
	"prism/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category.
type CreateCategoryRequest struct {
	Name     string              `json:"name" binding:"required,min=1,max=100"`
	Type     models.CategoryType `json:"category_type" binding:"required,category_type"`
	Color    string              `json:"color" binding:"omitempty,hex_color"`
	ParentID *string             `json:"parent_id" binding:"omitempty,uuid"`
	IsActive *bool               `json:"is_active"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// An empty parent_id moves the category to the top level.
type UpdateCategoryRequest struct {
	Name     *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Type     *models.CategoryType `json:"category_type" binding:"omitempty,category_type"`
	Color    *string              `json:"color" binding:"omitempty,hex_color"`
	ParentID *string              `json:"parent_id" binding:"omitempty,uuid|len=0"`
	IsActive *bool                `json:"is_active"`
}

// CategoryListQuery holds the query parameters of GET /categories.
type CategoryListQuery struct {
	pagination.PageRequest
	Type     *models.CategoryType `form:"category_type" binding:"omitempty,category_type"`
	IsActive *bool                `form:"is_active"`
	ParentID string               `form:"parent_id" binding:"omitempty,uuid"`
	RootOnly bool                 `form:"root_only"`
	Search   string               `form:"search" binding:"max=100"`
	Ordering string               `form:"ordering"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new income or expense category, optionally beneath a parent
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} services.CategoryView "Category created"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Parent category not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(userID, services.CategoryInput{
		Name:     req.Name,
		Type:     req.Type,
		Color:    req.Color,
		ParentID: req.ParentID,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]any{"name": category.Name, "category_type": category.Type})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetUserCategories handles the retrieval of categories for a user
// @Summary     Get user categories
// @Description Get a paginated list of categories for the authenticated user
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       category_type query string false "income or expense"
// @Param       is_active     query bool   false "Filter by active flag"
// @Param       parent_id     query string false "Only direct children of this category"
// @Param       root_only     query bool   false "Only top-level categories"
// @Param       search        query string false "Case-insensitive name search"
// @Param       ordering      query string false "name, created_at; prefix with - for descending"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.CategoryView] "Paginated categories"
// @Failure     400 {object} middleware.ErrorResponse "Invalid query"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetUserCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q CategoryListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.categoryService.GetUserCategories(userID, services.CategoryFilter{
		Type:     q.Type,
		IsActive: q.IsActive,
		ParentID: optionalID(q.ParentID),
		RootOnly: q.RootOnly,
		Search:   q.Search,
		Ordering: q.Ordering,
	}, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategoryByID handles the retrieval of a specific category for a user
// @Summary     Get category by ID
// @Description Get a specific category with its full name
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} services.CategoryView "Category details"
// @Failure     400 {object} middleware.ErrorResponse "Invalid category ID"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Category not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update category
// @Description Partially update a category. Moving a category beneath one of its descendants is rejected.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Param       request body UpdateCategoryRequest true "Updated category details"
// @Success     200 {object} services.CategoryView "Updated category"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input, duplicate name or circular hierarchy"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Category not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /categories/{id} [put]
// @Router      /categories/{id} [patch]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(userID, categoryID, services.CategoryPatch{
		Name:     req.Name,
		Type:     req.Type,
		Color:    req.Color,
		ParentID: req.ParentID,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CATEGORY", "category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete category
// @Description Delete a category with no transactions or subcategories. Its budgets are removed with it.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     204 "Category deleted"
// @Failure     400 {object} middleware.ErrorResponse "Category has dependents"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     404 {object} middleware.ErrorResponse "Category not found"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CATEGORY", "category", categoryID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetCategoryTree returns the active categories nested under their parents
// @Summary     Category tree
// @Description Active top-level categories with their active subcategories nested beneath
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} pagination.Collection[finance.CategoryNode] "Category tree"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /categories/tree [get]
func (h *CategoryHandler) GetCategoryTree(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tree, err := h.categoryService.GetCategoryTree(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewCollection(tree))
}

// GetCategoriesByType returns active categories grouped by type
// @Summary     Categories by type
// @Description Active categories split into income and expense groups
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.CategoriesByType "Grouped categories"
// @Failure     401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /categories/by-type [get]
func (h *CategoryHandler) GetCategoriesByType(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	grouped, err := h.categoryService.GetCategoriesByType(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, grouped)
}
