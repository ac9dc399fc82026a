package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "prism/internal/errors"
	"prism/internal/finance"
	"prism/internal/models"
	"prism/internal/pagination"
)

var categoryOrderings = []string{"name", "created_at"}

// categoryService handles category-related business logic.
type categoryService struct {
	db    *gorm.DB
	store *recordStore
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db, store: newRecordStore(db)}
}

var errDuplicateCategoryName = apperrors.WithMessage(apperrors.ErrDuplicateName, "You already have a category with this name under the same parent")

func newCategoryView(c models.Category) CategoryView {
	view := CategoryView{Category: c, FullName: finance.FullName(&c)}
	if c.Parent != nil {
		name := c.Parent.Name
		view.ParentName = &name
	}
	return view
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID string, in CategoryInput) (*CategoryView, error) {
	category := &models.Category{
		UserID:   userID,
		Name:     in.Name,
		Type:     in.Type,
		Color:    in.Color,
		ParentID: in.ParentID,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	if err := finance.ValidateCategory(s.store, userID, category); err != nil {
		return nil, err
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, dbError(err, errDuplicateCategoryName)
	}
	return s.GetCategoryByID(userID, category.ID)
}

// GetUserCategories retrieves a filtered, paginated list of categories for a user.
func (s *categoryService) GetUserCategories(userID string, filter CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[CategoryView], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.RootOnly {
		base = base.Where("parent_id IS NULL")
	} else if filter.ParentID != nil {
		base = base.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.Search != "" {
		base = base.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Preload("Parent").
		Scopes(pagination.Ordering(filter.Ordering, categoryOrderings, "name ASC"), pagination.Paginate(page)).
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]CategoryView, len(categories))
	for i := range categories {
		views[i] = newCategoryView(categories[i])
	}
	result := pagination.NewPageResponse(views, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *categoryService) findCategory(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Preload("Parent").Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*CategoryView, error) {
	category, err := s.findCategory(userID, categoryID)
	if err != nil {
		return nil, err
	}
	view := newCategoryView(*category)
	return &view, nil
}

// UpdateCategory applies a partial update. A new parent is checked for
// ownership and cycles; the name must stay unique under the final parent.
func (s *categoryService) UpdateCategory(userID, categoryID string, patch CategoryPatch) (*CategoryView, error) {
	category, err := s.findCategory(userID, categoryID)
	if err != nil {
		return nil, err
	}

	patch.Apply(category)
	if err := finance.ValidateCategory(s.store, userID, category); err != nil {
		return nil, err
	}

	if err := s.db.Model(category).
		Select("name", "type", "color", "parent_id", "is_active").
		Updates(category).Error; err != nil {
		return nil, dbError(err, errDuplicateCategoryName)
	}
	return s.GetCategoryByID(userID, category.ID)
}

// DeleteCategory removes a category with no transactions or subcategories,
// together with its budgets.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.findCategory(userID, categoryID)
	if err != nil {
		return err
	}
	if err := finance.CheckCategoryDeletable(s.store, category.ID); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.Budget{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", category.ID).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetCategoryTree nests the user's active categories under their active
// root categories.
func (s *categoryService) GetCategoryTree(userID string) ([]*finance.CategoryNode, error) {
	var roots []models.Category
	if err := s.db.Where("user_id = ? AND parent_id IS NULL AND is_active = ?", userID, true).
		Order("name ASC").Find(&roots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	tree, err := finance.BuildTree(roots, s.store)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tree, nil
}

// GetCategoriesByType groups the user's active categories by type.
func (s *categoryService) GetCategoriesByType(userID string) (*CategoriesByType, error) {
	var categories []models.Category
	if err := s.db.Preload("Parent").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &CategoriesByType{
		Income:  CategoryGroup{Categories: []CategoryView{}},
		Expense: CategoryGroup{Categories: []CategoryView{}},
	}
	for _, c := range categories {
		group := &result.Expense
		if c.Type == models.CategoryTypeIncome {
			group = &result.Income
		}
		group.Categories = append(group.Categories, newCategoryView(c))
		group.Count++
	}
	return result, nil
}
