package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "prism/internal/errors"
	"prism/internal/finance"
	"prism/internal/models"
	"prism/internal/pagination"
	"prism/internal/services"
)

const (
	testCategoryID = "0190f3a2-0000-7000-8000-0000000000c1"
	testParentID   = "0190f3a2-0000-7000-8000-0000000000c0"
)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn      func(userID string, in services.CategoryInput) (*services.CategoryView, error)
	getUserCategoriesFn   func(userID string, filter services.CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[services.CategoryView], error)
	getCategoryByIDFn     func(userID, categoryID string) (*services.CategoryView, error)
	updateCategoryFn      func(userID, categoryID string, patch services.CategoryPatch) (*services.CategoryView, error)
	deleteCategoryFn      func(userID, categoryID string) error
	getCategoryTreeFn     func(userID string) ([]*finance.CategoryNode, error)
	getCategoriesByTypeFn func(userID string) (*services.CategoriesByType, error)
}

func (m *mockCategoryService) CreateCategory(userID string, in services.CategoryInput) (*services.CategoryView, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, in)
	}
	return &services.CategoryView{}, nil
}

func (m *mockCategoryService) GetUserCategories(userID string, filter services.CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[services.CategoryView], error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(userID, filter, page)
	}
	resp := pagination.NewPageResponse([]services.CategoryView{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID string) (*services.CategoryView, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(userID, categoryID)
	}
	return &services.CategoryView{}, nil
}

func (m *mockCategoryService) UpdateCategory(userID, categoryID string, patch services.CategoryPatch) (*services.CategoryView, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(userID, categoryID, patch)
	}
	return &services.CategoryView{}, nil
}

func (m *mockCategoryService) DeleteCategory(userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID)
	}
	return nil
}

func (m *mockCategoryService) GetCategoryTree(userID string) ([]*finance.CategoryNode, error) {
	if m.getCategoryTreeFn != nil {
		return m.getCategoryTreeFn(userID)
	}
	return nil, nil
}

func (m *mockCategoryService) GetCategoriesByType(userID string) (*services.CategoriesByType, error) {
	if m.getCategoriesByTypeFn != nil {
		return m.getCategoriesByTypeFn(userID)
	}
	return &services.CategoriesByType{}, nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/categories", handler.CreateCategory)
	auth.GET("/categories", handler.GetUserCategories)
	auth.GET("/categories/tree", handler.GetCategoryTree)
	auth.GET("/categories/by-type", handler.GetCategoriesByType)
	auth.GET("/categories/:id", handler.GetCategoryByID)
	auth.PUT("/categories/:id", handler.UpdateCategory)
	auth.PATCH("/categories/:id", handler.UpdateCategory)
	auth.DELETE("/categories/:id", handler.DeleteCategory)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 with full name", func(t *testing.T) {
		catSvc := &mockCategoryService{
			createCategoryFn: func(userID string, in services.CategoryInput) (*services.CategoryView, error) {
				if in.ParentID == nil || *in.ParentID != testParentID {
					t.Errorf("expected parent %s, got %v", testParentID, in.ParentID)
				}
				v := &services.CategoryView{
					Category: models.Category{UserID: userID, Name: in.Name, Type: in.Type, ParentID: in.ParentID},
					FullName: "Food > " + in.Name,
				}
				v.ID = testCategoryID
				return v, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories",
			`{"name":"Groceries","category_type":"expense","color":"#22AA44","parent_id":"`+testParentID+`"}`)

		assertStatus(t, rec, http.StatusCreated)
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["full_name"] != "Food > Groceries" {
			t.Errorf("unexpected full_name %v", cat["full_name"])
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"category_type":"expense"}`},
		{"bad type", `{"name":"X","category_type":"transfer"}`},
		{"bad color", `{"name":"X","category_type":"expense","color":"red"}`},
		{"bad parent id", `{"name":"X","category_type":"expense","parent_id":"7"}`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/categories", tt.body)

			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("returns 404 for a foreign parent", func(t *testing.T) {
		catSvc := &mockCategoryService{
			createCategoryFn: func(string, services.CategoryInput) (*services.CategoryView, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories",
			`{"name":"X","category_type":"expense","parent_id":"`+testParentID+`"}`)

		assertStatus(t, rec, http.StatusNotFound)
	})
}

func TestCategoryHandler_GetUserCategories(t *testing.T) {
	var got services.CategoryFilter
	catSvc := &mockCategoryService{
		getUserCategoriesFn: func(_ string, filter services.CategoryFilter, _ pagination.PageRequest) (*pagination.PageResponse[services.CategoryView], error) {
			got = filter
			resp := pagination.NewPageResponse([]services.CategoryView{}, 1, 20, 0)
			return &resp, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/categories?category_type=income&root_only=true", "")

	assertStatus(t, rec, http.StatusOK)
	if got.Type == nil || *got.Type != models.CategoryTypeIncome {
		t.Errorf("expected income filter, got %v", got.Type)
	}
	if !got.RootOnly || got.ParentID != nil {
		t.Errorf("expected root-only filter, got %+v", got)
	}
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	t.Run("empty parent_id clears the parent", func(t *testing.T) {
		var got services.CategoryPatch
		catSvc := &mockCategoryService{
			updateCategoryFn: func(_, _ string, patch services.CategoryPatch) (*services.CategoryView, error) {
				got = patch
				return &services.CategoryView{}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/categories/"+testCategoryID, `{"parent_id":""}`)

		assertStatus(t, rec, http.StatusOK)
		if got.ParentID == nil || *got.ParentID != "" {
			t.Errorf("expected empty parent patch, got %v", got.ParentID)
		}
	})

	t.Run("returns 400 on circular hierarchy", func(t *testing.T) {
		catSvc := &mockCategoryService{
			updateCategoryFn: func(string, string, services.CategoryPatch) (*services.CategoryView, error) {
				return nil, apperrors.ErrCircularHierarchy
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID, `{"parent_id":"`+testParentID+`"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "CIRCULAR_HIERARCHY")
	})
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	catSvc := &mockCategoryService{
		deleteCategoryFn: func(string, string) error { return apperrors.ErrHasDependents },
	}
	r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

	rec := doRequest(r, "DELETE", "/categories/"+testCategoryID, "")

	assertStatus(t, rec, http.StatusBadRequest)
	assertErrorCode(t, parseJSON(t, rec), "HAS_DEPENDENTS")
}

func TestCategoryHandler_GetCategoryTree(t *testing.T) {
	t.Run("wraps nodes in a collection", func(t *testing.T) {
		catSvc := &mockCategoryService{
			getCategoryTreeFn: func(string) ([]*finance.CategoryNode, error) {
				child := &finance.CategoryNode{Category: models.Category{Name: "Rent"}, FullName: "Housing > Rent", Subcategories: []*finance.CategoryNode{}}
				root := &finance.CategoryNode{Category: models.Category{Name: "Housing"}, FullName: "Housing", Subcategories: []*finance.CategoryNode{child}}
				return []*finance.CategoryNode{root}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/tree", "")

		assertStatus(t, rec, http.StatusOK)
		result := parseJSON(t, rec)
		if result["count"] != float64(1) {
			t.Errorf("expected count 1, got %v", result["count"])
		}
		root := result["results"].([]interface{})[0].(map[string]interface{})
		subs := root["subcategories"].([]interface{})
		if len(subs) != 1 {
			t.Fatalf("expected 1 subcategory, got %d", len(subs))
		}
	})

	t.Run("empty tree is an empty list", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/tree", "")

		assertStatus(t, rec, http.StatusOK)
		if results, ok := parseJSON(t, rec)["results"].([]interface{}); !ok || len(results) != 0 {
			t.Errorf("expected empty results list, got %v", results)
		}
	})
}

func TestCategoryHandler_GetCategoriesByType(t *testing.T) {
	catSvc := &mockCategoryService{
		getCategoriesByTypeFn: func(string) (*services.CategoriesByType, error) {
			return &services.CategoriesByType{
				Income:  services.CategoryGroup{Count: 1, Categories: []services.CategoryView{{FullName: "Salary"}}},
				Expense: services.CategoryGroup{Categories: []services.CategoryView{}},
			}, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(catSvc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/categories/by-type", "")

	assertStatus(t, rec, http.StatusOK)
	income := parseJSON(t, rec)["income"].(map[string]interface{})
	if income["count"] != float64(1) {
		t.Errorf("expected 1 income category, got %v", income["count"])
	}
}
